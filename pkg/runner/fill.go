package runner

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/journeylab-dev/journey-runner/pkg/core"
)

// FillStep fills a question page's fields. Fields are processed in
// sorted label order so a failure is reproducible regardless of map
// iteration. Dispatch per value: an option list checks each named
// checkbox, a date fills the day/month/year inputs (or one combined
// input), and a scalar operates whatever control the label resolves
// to, radio or text.
func (r *Runner) FillStep(ctx context.Context, fields map[string]core.FieldValue) error {
	labels := make([]string, 0, len(fields))
	for label := range fields {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		if err := r.fillField(ctx, label, fields[label]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) fillField(ctx context.Context, label string, value core.FieldValue) error {
	r.log.Debug("filling field",
		zap.String("run", r.runID),
		zap.String("field", label),
		zap.String("value", value.Describe()))

	if value.IsOptions() {
		return r.checkOptions(ctx, label, value.Options)
	}
	if _, ok := value.AsDate(); ok {
		if done, err := r.fillDate(ctx, label, value); done {
			return err
		}
	}
	text := value.Text
	if value.Date != nil {
		text = value.Date.String()
	}
	return r.fillScalar(ctx, label, text)
}

// checkOptions checks each named checkbox, resolving by the option's own
// label first and within the question's fieldset as a fallback.
func (r *Runner) checkOptions(ctx context.Context, label string, options []string) error {
	for _, option := range options {
		control, err := r.awaitOption(ctx, label, option)
		if err != nil {
			return err
		}
		if err := r.page.Click(ctx, control.Selector); err != nil {
			return fmt.Errorf("check %q: %w", option, err)
		}
	}
	return nil
}

func (r *Runner) awaitOption(ctx context.Context, label, option string) (*core.Control, error) {
	return r.awaitResolved(ctx, func(ctx context.Context) (*core.Control, error) {
		if control, err := r.comps.Option(ctx, option); err == nil {
			return control, nil
		}
		return r.comps.OptionInGroup(ctx, label, option)
	})
}

// fillDate fills a date question. The bool reports whether a date
// control took the value; false means the label does not address a date
// question and the caller should fall back to scalar handling.
func (r *Runner) fillDate(ctx context.Context, label string, value core.FieldValue) (bool, error) {
	controls, err := r.comps.DateGroup(ctx, label)
	if err != nil {
		return false, nil
	}
	if controls.Parts() {
		date, _ := value.AsDate()
		parts := []struct {
			selector string
			value    int
		}{
			{controls.Day, date.Day},
			{controls.Month, date.Month},
			{controls.Year, date.Year},
		}
		for _, part := range parts {
			if err := r.page.Fill(ctx, part.selector, strconv.Itoa(part.value)); err != nil {
				return true, fmt.Errorf("fill date part of %q: %w", label, err)
			}
		}
		return true, nil
	}
	// Single combined input: keep the author's string form, or render
	// the explicit date as d/m/y.
	text := value.Text
	if value.Date != nil {
		text = value.Date.String()
	}
	if err := r.page.Fill(ctx, controls.Combined, text); err != nil {
		return true, fmt.Errorf("fill %q: %w", label, err)
	}
	return true, nil
}

// fillScalar operates the control the label resolves to: radios and
// checkboxes are clicked, everything else takes the text. For radio
// groups the label may be the group's question, with the value naming
// the option.
func (r *Runner) fillScalar(ctx context.Context, label, text string) error {
	control, err := r.awaitScalar(ctx, label, text)
	if err != nil {
		if probed, probeErr := r.probeByDerivedID(ctx, label); probeErr == nil {
			control = probed
		} else {
			return err
		}
	}

	switch control.Kind {
	case core.ControlRadio, core.ControlCheckbox:
		if err := r.page.Click(ctx, control.Selector); err != nil {
			return fmt.Errorf("select %q: %w", label, err)
		}
		return nil
	case core.ControlSelect:
		if err := r.page.Fill(ctx, control.Selector, text); err != nil {
			return fmt.Errorf("fill %q: %w", label, err)
		}
		return nil
	default:
		if err := r.page.Fill(ctx, control.Selector, text); err != nil {
			return fmt.Errorf("fill %q: %w", label, err)
		}
		// Read the value back: typed text must survive verbatim.
		got, err := r.page.Value(ctx, control.Selector)
		if err != nil {
			return fmt.Errorf("read back %q: %w", label, err)
		}
		if got != text {
			return &core.AssertionError{
				Subject:  fmt.Sprintf("field %q after fill", label),
				Expected: fmt.Sprintf("%q", text),
				Observed: []string{got},
			}
		}
		return nil
	}
}

func (r *Runner) awaitScalar(ctx context.Context, label, text string) (*core.Control, error) {
	return r.awaitResolved(ctx, func(ctx context.Context) (*core.Control, error) {
		if control, err := r.comps.Input(ctx, label); err == nil {
			return control, nil
		}
		return r.comps.OptionInGroup(ctx, label, text)
	})
}

// awaitResolved retries a single-attempt control resolution until the
// find deadline passes.
func (r *Runner) awaitResolved(ctx context.Context, find func(context.Context) (*core.Control, error)) (*core.Control, error) {
	waitCtx, cancel := context.WithTimeout(ctx, r.opts.Timeouts.Find)
	defer cancel()

	var lastErr error
	for {
		control, err := find(waitCtx)
		if err == nil {
			return control, nil
		}
		lastErr = err
		select {
		case <-waitCtx.Done():
			return nil, lastErr
		case <-time.After(headingPollInterval):
		}
	}
}

// probeByDerivedID asks the live page for an input whose id is the
// kebab-cased label. Last resort for markup where the label association
// is broken; always logged so flaky journeys are traceable.
func (r *Runner) probeByDerivedID(ctx context.Context, label string) (*core.Control, error) {
	id := derivedID(label)
	if id == "" {
		return nil, fmt.Errorf("no id derivable from %q", label)
	}
	probeCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	selector := "#" + id
	attrs, err := r.page.Attributes(probeCtx, selector)
	if err != nil {
		return nil, err
	}
	kind := core.ControlText
	switch attrs["type"] {
	case "radio":
		kind = core.ControlRadio
	case "checkbox":
		kind = core.ControlCheckbox
	}
	r.log.Info("resolved control by derived id",
		zap.String("run", r.runID),
		zap.String("field", label),
		zap.String("selector", selector))
	return &core.Control{Selector: selector, Kind: kind, Label: label}, nil
}

// derivedID turns a label into the id convention used by form builders:
// lower-cased, punctuation dropped, words joined with hyphens.
func derivedID(label string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
