// Package runner drives a journey through its pages: starting a run,
// advancing and going back, filling question pages, and submitting.
// Navigation never assumes a URL change; every wait is for content,
// bounded by a deadline.
package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/journeylab-dev/journey-runner/pkg/core"
	"github.com/journeylab-dev/journey-runner/pkg/dom"
	"github.com/journeylab-dev/journey-runner/pkg/patterns"
)

// Default deadlines. Submission confirmation is generous: some services
// queue the application and render the confirmation page late.
const (
	DefaultSubmitTimeout  = 120 * time.Second
	DefaultHeadingTimeout = 60 * time.Second
	DefaultFindTimeout    = 10 * time.Second

	headingPollInterval = 100 * time.Millisecond
	confirmPollInterval = 250 * time.Millisecond
)

// Button labels and landmark headings the runner recognises.
var (
	continueLabels       = []string{"Continue", "Save and continue"}
	submitLabels         = []string{"Accept and send", "Continue"}
	confirmationHeadings = []string{"Application submitted", "Application complete", "Submission complete"}
)

const reviewHeading = "Check your answers"

// Timeouts bounds the runner's waits. Zero fields take the defaults.
type Timeouts struct {
	Submit  time.Duration // waiting for a submission confirmation
	Heading time.Duration // waiting for an expected heading
	Find    time.Duration // waiting for a control to resolve
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Submit == 0 {
		t.Submit = DefaultSubmitTimeout
	}
	if t.Heading == 0 {
		t.Heading = DefaultHeadingTimeout
	}
	if t.Find == 0 {
		t.Find = DefaultFindTimeout
	}
	return t
}

// Options configures a Runner.
type Options struct {
	// BaseURL prefixes every journey entry path.
	BaseURL string
	// Timeouts bounds the runner's waits.
	Timeouts Timeouts
	// SettleDelay is slept after clicks that load a new page, before the
	// next read. Zero disables it.
	SettleDelay time.Duration
	// Log receives structured progress events. Nil disables logging.
	Log *zap.Logger
}

// Runner drives one journey run. It is owned by a single goroutine; a
// run is a strict sequence of page interactions.
type Runner struct {
	page     core.Page
	comps    *Components
	detector *patterns.Detector
	opts     Options
	log      *zap.Logger

	runID string
	phase Phase
	step  int
	data  map[string]any
}

// New creates a runner over the given page.
func New(page core.Page, opts Options) *Runner {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	opts.Timeouts = opts.Timeouts.withDefaults()
	return &Runner{
		page:     page,
		comps:    NewComponents(page, opts.Log),
		detector: patterns.NewDetector(page, opts.Log),
		opts:     opts,
		log:      opts.Log,
		data:     make(map[string]any),
	}
}

// Page returns the page the runner drives.
func (r *Runner) Page() core.Page {
	return r.page
}

// Components returns the runner's control resolver, for custom steps.
func (r *Runner) Components() *Components {
	return r.comps
}

// Detector returns the runner's pattern detector, for adaptive steps.
func (r *Runner) Detector() *patterns.Detector {
	return r.detector
}

// RunID returns the identifier of the current run. Empty before Start.
func (r *Runner) RunID() string {
	return r.runID
}

// Phase returns where the run currently is.
func (r *Runner) Phase() Phase {
	return r.phase
}

// Step returns the advisory step counter: 0 on the first page,
// incremented per advance.
func (r *Runner) Step() int {
	return r.step
}

// Start begins a fresh run at BaseURL+path: stored data and the step
// counter reset, and a new run id is issued.
func (r *Runner) Start(ctx context.Context, path string) error {
	url := strings.TrimRight(r.opts.BaseURL, "/") + path
	if err := r.page.Navigate(ctx, url); err != nil {
		return fmt.Errorf("start journey at %s: %w", url, err)
	}
	r.runID = uuid.NewString()
	r.phase = PhaseInStep
	r.step = 0
	r.data = make(map[string]any)
	r.settle()
	r.log.Info("journey started",
		zap.String("run", r.runID),
		zap.String("url", url))
	return nil
}

// Continue advances to the next page and increments the step counter.
func (r *Runner) Continue(ctx context.Context) error {
	if err := r.ClickAdvance(ctx); err != nil {
		return fmt.Errorf("continue: %w", err)
	}
	r.step++
	r.refreshPhase(ctx)
	r.log.Debug("advanced to next step",
		zap.String("run", r.runID),
		zap.Int("step", r.step),
		zap.String("phase", r.phase.String()))
	return nil
}

// ClickAdvance clicks the page's advance button without touching the
// step counter. Used when the click is expected to be rejected by
// validation and the journey stays on the same page.
func (r *Runner) ClickAdvance(ctx context.Context) error {
	selector, err := r.awaitButton(ctx, continueLabels...)
	if err != nil {
		return err
	}
	if err := r.page.Click(ctx, selector); err != nil {
		return err
	}
	r.settle()
	return nil
}

// GoBack navigates to the previous page, preferring a Back button over
// a Back link. The step counter never goes below zero.
func (r *Runner) GoBack(ctx context.Context) error {
	selector, err := r.awaitControl(ctx, func(ctx context.Context) (string, error) {
		return r.comps.BackControl(ctx)
	})
	if err != nil {
		return fmt.Errorf("go back: %w", err)
	}
	if err := r.page.Click(ctx, selector); err != nil {
		return fmt.Errorf("go back: %w", err)
	}
	r.settle()
	if r.step == 0 {
		r.log.Warn("going back from the first step, counter stays at zero",
			zap.String("run", r.runID))
	} else {
		r.step--
	}
	r.refreshPhase(ctx)
	return nil
}

// VerifyHeading waits for the expected heading to appear among the
// page's visible headings. Matching tolerates typographic punctuation
// on either side. On timeout the error lists the headings that were
// present.
func (r *Runner) VerifyHeading(ctx context.Context, text string) error {
	want := dom.Normalize(text)
	waitCtx, cancel := context.WithTimeout(ctx, r.opts.Timeouts.Heading)
	defer cancel()

	var last []string
	read := false
	for {
		headings, err := r.headings(waitCtx)
		if err == nil {
			for _, h := range headings {
				if h == want {
					return nil
				}
			}
			last = headings
			read = true
		}
		select {
		case <-waitCtx.Done():
			if !read {
				return fmt.Errorf("verify heading %q: page never readable: %w", text, waitCtx.Err())
			}
			return &core.AssertionError{
				Subject:  "page heading",
				Expected: fmt.Sprintf("%q", text),
				Observed: last,
			}
		case <-time.After(headingPollInterval):
		}
	}
}

// Submit sends the application from the review page and waits for a
// confirmation landmark: the confirmation heading, the confirmation
// panel, or an alternate phrasing. If no landmark appears in time but
// the review page is gone and no errors are showing, the submission is
// treated as successful with a warning.
func (r *Runner) Submit(ctx context.Context) error {
	selector, err := r.awaitButton(ctx, submitLabels...)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := r.page.Click(ctx, selector); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := r.awaitConfirmation(ctx); err != nil {
		return r.reviewGoneFallback(ctx, err)
	}
	r.phase = PhaseSubmitted
	r.log.Info("submission confirmed", zap.String("run", r.runID))
	return nil
}

// awaitConfirmation polls for any recognised confirmation landmark.
func (r *Runner) awaitConfirmation(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, r.opts.Timeouts.Submit)
	defer cancel()

	for {
		if ok, _ := r.confirmationVisible(waitCtx); ok {
			return nil
		}
		select {
		case <-waitCtx.Done():
			headings, _ := r.headings(ctx)
			return &core.SubmissionError{
				Timeout:  r.opts.Timeouts.Submit,
				Headings: headings,
				Cause:    waitCtx.Err(),
			}
		case <-time.After(confirmPollInterval):
		}
	}
}

func (r *Runner) confirmationVisible(ctx context.Context) (bool, error) {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return false, err
	}
	if snap.HasVisible(".govuk-panel--confirmation") {
		return true, nil
	}
	for _, h := range snap.Headings() {
		for _, want := range confirmationHeadings {
			if h == want {
				return true, nil
			}
		}
	}
	return false, nil
}

// reviewGoneFallback decides what a confirmation timeout means: when
// the review page is gone and no error summary is showing, the service
// likely confirmed with copy the runner does not recognise, so the run
// proceeds with a warning. Anything else is a real failure.
func (r *Runner) reviewGoneFallback(ctx context.Context, cause error) error {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return cause
	}
	reviewGone := true
	for _, h := range snap.Headings() {
		if h == reviewHeading {
			reviewGone = false
			break
		}
	}
	display, err := r.detector.DetectErrorDisplay(ctx)
	if err != nil {
		return cause
	}
	summaryShowing := display == patterns.ErrorsSummary || display == patterns.ErrorsBoth
	if reviewGone && !summaryShowing {
		r.phase = PhaseSubmitted
		r.log.Warn("no confirmation landmark found, review page gone, treating submission as successful",
			zap.String("run", r.runID),
			zap.Strings("headings", snap.Headings()))
		return nil
	}
	return cause
}

// StoreData records a value in the run's shared data.
func (r *Runner) StoreData(key string, value any) {
	r.data[key] = value
}

// Data returns a stored value.
func (r *Runner) Data(key string) (any, bool) {
	v, ok := r.data[key]
	return v, ok
}

// DataSnapshot returns a shallow copy of the run's shared data.
func (r *Runner) DataSnapshot() map[string]any {
	out := make(map[string]any, len(r.data))
	for k, v := range r.data {
		out[k] = v
	}
	return out
}

func (r *Runner) snapshot(ctx context.Context) (*dom.Snapshot, error) {
	htmlText, err := r.page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	return dom.Parse(htmlText)
}

func (r *Runner) headings(ctx context.Context) ([]string, error) {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Headings(), nil
}

// refreshPhase re-reads the page to keep the advisory phase current.
func (r *Runner) refreshPhase(ctx context.Context) {
	headings, err := r.headings(ctx)
	if err != nil {
		return
	}
	r.phase = PhaseInStep
	for _, h := range headings {
		if h == reviewHeading {
			r.phase = PhaseAtReview
			return
		}
	}
}

// awaitButton polls for the first button matching any of the labels.
func (r *Runner) awaitButton(ctx context.Context, labels ...string) (string, error) {
	return r.awaitControl(ctx, func(ctx context.Context) (string, error) {
		return r.comps.Button(ctx, labels...)
	})
}

// awaitControl retries a single-attempt resolution until it succeeds or
// the find deadline passes. The last resolution error wins: it carries
// the labels that were actually present.
func (r *Runner) awaitControl(ctx context.Context, find func(context.Context) (string, error)) (string, error) {
	waitCtx, cancel := context.WithTimeout(ctx, r.opts.Timeouts.Find)
	defer cancel()

	var lastErr error
	for {
		selector, err := find(waitCtx)
		if err == nil {
			return selector, nil
		}
		lastErr = err
		select {
		case <-waitCtx.Done():
			return "", lastErr
		case <-time.After(headingPollInterval):
		}
	}
}

// settle gives the page a moment to render after a click that loads new
// content.
func (r *Runner) settle() {
	if r.opts.SettleDelay > 0 {
		time.Sleep(r.opts.SettleDelay)
	}
}
