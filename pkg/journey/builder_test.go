package journey

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journeylab-dev/journey-runner/pkg/mock"
	"github.com/journeylab-dev/journey-runner/pkg/runner"
)

func newTestBuilder() *Builder {
	page := mock.NewWithHTML(`<html><body><h1>Start</h1></body></html>`)
	return NewBuilder(runner.New(page, runner.Options{}), nil)
}

func TestExecuteRunsStepsInOrder(t *testing.T) {
	b := newTestBuilder()
	var ran []int
	for i := 1; i <= 3; i++ {
		b.AddStep(func(*Context) error {
			ran = append(ran, i)
			return nil
		})
	}

	require.NoError(t, b.Execute(context.Background()))
	assert.Equal(t, []int{1, 2, 3}, ran)
}

func TestExecuteAttributesFailureAndHalts(t *testing.T) {
	b := newTestBuilder()
	var ran []int
	b.AddStep(func(sc *Context) error {
		ran = append(ran, 1)
		sc.Data["applicant"] = "Sasha Rowan"
		return nil
	})
	b.AddStep(func(*Context) error {
		ran = append(ran, 2)
		return errors.New("no continue button")
	})
	b.AddStep(func(*Context) error {
		ran = append(ran, 3)
		return nil
	})

	err := b.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 2")
	assert.Contains(t, err.Error(), "no continue button")

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 2, stepErr.Index)

	// The failing step halted the run, but the first step's effects
	// remain.
	assert.Equal(t, []int{1, 2}, ran)
	v, ok := b.Data("applicant")
	require.True(t, ok)
	assert.Equal(t, "Sasha Rowan", v)
}

func TestExecuteUpToRunsPrefixOnly(t *testing.T) {
	b := newTestBuilder()
	var ran []int
	for i := 1; i <= 4; i++ {
		b.AddStep(func(*Context) error {
			ran = append(ran, i)
			return nil
		})
	}

	require.NoError(t, b.ExecuteUpTo(context.Background(), 2))
	assert.Equal(t, []int{1, 2}, ran)
	assert.Equal(t, 4, b.StepCount())
}

func TestExecuteRangeAttributesRelatively(t *testing.T) {
	b := newTestBuilder()
	var ran []int
	step := func(i int, err error) Step {
		return func(*Context) error {
			ran = append(ran, i)
			return err
		}
	}
	b.AddSteps(
		step(1, nil),
		step(2, nil),
		step(3, errors.New("boom")),
		step(4, nil),
	)

	err := b.ExecuteRange(context.Background(), 2, 4)
	require.Error(t, err)
	// Step 3 of the pipeline is the second step of the executed window.
	assert.Contains(t, err.Error(), "step 2")
	assert.Equal(t, []int{2, 3}, ran)

	// The pipeline itself is untouched: a full run still sees all four.
	ran = nil
	err = b.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 3")
	assert.Equal(t, []int{1, 2, 3}, ran)
}

func TestExecuteRangeRejectsBadWindows(t *testing.T) {
	b := newTestBuilder()
	b.AddStep(func(*Context) error { return nil })

	ctx := context.Background()
	assert.Error(t, b.ExecuteRange(ctx, 0, 1))
	assert.Error(t, b.ExecuteRange(ctx, 2, 1))
	assert.Error(t, b.ExecuteRange(ctx, 1, 5))
}

func TestSyncedKeysFlushAfterEachStep(t *testing.T) {
	b := newTestBuilder()
	b.AddStep(func(sc *Context) error {
		sc.Runner.StoreData("contact.email", "sasha@example.com")
		sc.Runner.StoreData("internal.scratch", "not synced")
		return nil
	})
	var seen any
	b.AddStep(func(sc *Context) error {
		seen = sc.Data["contact.email"]
		return nil
	})

	require.NoError(t, b.Execute(context.Background()))
	assert.Equal(t, "sasha@example.com", seen)

	v, ok := b.Data("contact.email")
	require.True(t, ok)
	assert.Equal(t, "sasha@example.com", v)

	_, ok = b.Data("internal.scratch")
	assert.False(t, ok)
}

func TestCloneIsIndependent(t *testing.T) {
	b := newTestBuilder()
	b.AddStep(func(*Context) error { return nil })
	b.SetData("applicant", "Sasha Rowan")

	c := b.Clone()
	c.AddStep(func(*Context) error { return nil })
	c.SetData("applicant", "Alex Doyle")
	c.SetData("extra", true)

	assert.Equal(t, 1, b.StepCount())
	assert.Equal(t, 2, c.StepCount())

	v, _ := b.Data("applicant")
	assert.Equal(t, "Sasha Rowan", v)
	_, ok := b.Data("extra")
	assert.False(t, ok)
}

func TestAddCustomStepChains(t *testing.T) {
	b := newTestBuilder()
	called := false
	got := b.AddCustomStep(func(*Context) error {
		called = true
		return nil
	})
	assert.Same(t, b, got)

	require.NoError(t, b.Execute(context.Background()))
	assert.True(t, called)
}
