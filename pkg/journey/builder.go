package journey

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/journeylab-dev/journey-runner/pkg/runner"
)

// syncedKeys are copied from the runner's store into the journey's
// shared data after every step, so later steps and assertions see what
// earlier pages produced.
var syncedKeys = []string{
	"contact.name",
	"contact.email",
	"contact.phone",
	"application.reference",
}

// Builder assembles and executes a journey pipeline. Steps only ever
// append; execution is strictly ordered and stops at the first failure.
// A Builder drives one run at a time and is not safe for concurrent
// use.
type Builder struct {
	runner *runner.Runner
	log    *zap.Logger
	steps  []Step
	data   map[string]any
}

// NewBuilder creates an empty pipeline over the given runner. A nil
// logger disables logging.
func NewBuilder(r *runner.Runner, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{
		runner: r,
		log:    log,
		data:   make(map[string]any),
	}
}

// AddStep appends one step to the pipeline.
func (b *Builder) AddStep(step Step) *Builder {
	b.steps = append(b.steps, step)
	return b
}

// AddSteps appends steps in the given order.
func (b *Builder) AddSteps(steps ...Step) *Builder {
	b.steps = append(b.steps, steps...)
	return b
}

// AddCustomStep appends an inline step for one-off page work.
func (b *Builder) AddCustomStep(fn func(*Context) error) *Builder {
	return b.AddStep(fn)
}

// StepCount returns the number of steps in the pipeline.
func (b *Builder) StepCount() int {
	return len(b.steps)
}

// SetData seeds the journey's shared data before execution.
func (b *Builder) SetData(key string, value any) *Builder {
	b.data[key] = value
	return b
}

// Data returns a value from the journey's shared data.
func (b *Builder) Data(key string) (any, bool) {
	v, ok := b.data[key]
	return v, ok
}

// Execute runs the whole pipeline in order. The first failing step
// halts the run; its error names the step's 1-based position.
func (b *Builder) Execute(ctx context.Context) error {
	return b.run(ctx)
}

// ExecuteUpTo runs only the first n steps, for building a journey up to
// a page under investigation.
func (b *Builder) ExecuteUpTo(ctx context.Context, n int) error {
	return b.ExecuteRange(ctx, 1, n)
}

// ExecuteRange runs the steps from position from to position to,
// 1-based inclusive. The pipeline itself is left untouched; failures
// are attributed relative to the executed slice.
func (b *Builder) ExecuteRange(ctx context.Context, from, to int) error {
	if from < 1 || to > len(b.steps) || from > to {
		return fmt.Errorf("step range %d..%d outside journey of %d steps", from, to, len(b.steps))
	}
	sub := append([]Step(nil), b.steps[from-1:to]...)
	saved := b.steps
	b.steps = sub
	defer func() { b.steps = saved }()
	return b.run(ctx)
}

func (b *Builder) run(ctx context.Context) error {
	total := len(b.steps)
	for i, step := range b.steps {
		stepCtx := b.newContext(ctx)
		if err := step(stepCtx); err != nil {
			b.log.Error("journey step failed",
				zap.Int("step", i+1),
				zap.Int("of", total),
				zap.Error(err))
			return &StepError{Index: i + 1, Err: err}
		}
		b.syncRunnerData()
		b.log.Debug("journey step passed",
			zap.Int("step", i+1),
			zap.Int("of", total))
	}
	return nil
}

// newContext builds the view a step executes against, with the current
// shared data.
func (b *Builder) newContext(ctx context.Context) *Context {
	return &Context{
		Ctx:        ctx,
		Page:       b.runner.Page(),
		Runner:     b.runner,
		Components: b.runner.Components(),
		Detector:   b.runner.Detector(),
		Data:       b.data,
		Log:        b.log,
	}
}

// syncRunnerData flushes the well-known keys from the runner's store
// into the journey's shared data. One way only: journey data never
// writes back into the runner.
func (b *Builder) syncRunnerData() {
	for _, key := range syncedKeys {
		if v, ok := b.runner.Data(key); ok {
			b.data[key] = v
		}
	}
}

// Clone returns an independent pipeline with the same steps and a copy
// of the shared data. The page and runner handles are shared; the
// copies diverge from here on.
func (b *Builder) Clone() *Builder {
	data := make(map[string]any, len(b.data))
	for k, v := range b.data {
		data[k] = v
	}
	return &Builder{
		runner: b.runner,
		log:    b.log,
		steps:  append([]Step(nil), b.steps...),
		data:   data,
	}
}
