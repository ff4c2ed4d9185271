package steps

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/journeylab-dev/journey-runner/pkg/core"
	"github.com/journeylab-dev/journey-runner/pkg/journey"
	"github.com/journeylab-dev/journey-runner/pkg/patterns"
)

// VerifyErrors asserts the page displays every expected message in
// whichever error idiom the journey uses. Unlike calling the detector
// directly, the block first checks an idiom was detected at all: a
// journey that was expected to show errors but classifies as "none"
// fails loudly instead of vacuously passing an empty expectation.
func VerifyErrors(expected ...string) journey.Step {
	return func(sc *journey.Context) error {
		display, err := sc.Detector.DetectErrorDisplay(sc.Ctx)
		if err != nil {
			return err
		}
		if display == patterns.ErrorsNone {
			return &core.AssertionError{
				Subject:  "error display idiom",
				Expected: fmt.Sprintf("errors shown for: %s", strings.Join(expected, "; ")),
				Observed: []string{"no error summary or inline errors on the page"},
			}
		}
		sc.Log.Debug("verifying errors",
			zap.String("idiom", display.String()),
			zap.Strings("expected", expected))
		return sc.Detector.VerifyErrors(sc.Ctx, expected...)
	}
}

// VerifySummaryData asserts the summary shows each expected key/value
// pair in whichever summary idiom the journey uses, failing loudly when
// no summary idiom is present on the page.
func VerifySummaryData(expected map[string]string) journey.Step {
	return func(sc *journey.Context) error {
		kind, err := sc.Detector.DetectSummaryList(sc.Ctx)
		if err != nil {
			return err
		}
		if kind == patterns.SummaryNone {
			keys := make([]string, 0, len(expected))
			for k := range expected {
				keys = append(keys, k)
			}
			return &core.AssertionError{
				Subject:  "summary list idiom",
				Expected: fmt.Sprintf("a summary showing: %s", strings.Join(keys, "; ")),
				Observed: []string{"no recognisable summary markup on the page"},
			}
		}
		sc.Log.Debug("verifying summary data",
			zap.String("idiom", kind.String()))
		return sc.Detector.VerifySummaryData(sc.Ctx, expected)
	}
}

// ChangeAnswerIfSupported clicks the review page's change link for the
// given summary key, runs the refill step on the revisited page and
// continues back to the review. The refill step should only fill the
// page, not advance it; the block performs the continue itself.
// Journeys without change links log a notice and skip the whole block.
func ChangeAnswerIfSupported(key string, refill journey.Step) journey.Step {
	return func(sc *journey.Context) error {
		supported, err := sc.Detector.DetectChangeAnswerSupport(sc.Ctx)
		if err != nil {
			return err
		}
		if !supported {
			sc.Log.Info("journey has no change links, skipping change of answer",
				zap.String("key", key))
			return nil
		}
		return changeAnswer(sc, key, refill)
	}
}

// ConditionalChangeAnswer is ChangeAnswerIfSupported with an explicit
// fallback: journeys without change links run the fallback step instead
// of skipping, so they can exercise equivalent behaviour another way.
func ConditionalChangeAnswer(key string, refill, fallback journey.Step) journey.Step {
	return func(sc *journey.Context) error {
		supported, err := sc.Detector.DetectChangeAnswerSupport(sc.Ctx)
		if err != nil {
			return err
		}
		if !supported {
			sc.Log.Info("journey has no change links, running fallback",
				zap.String("key", key))
			return fallback(sc)
		}
		return changeAnswer(sc, key, refill)
	}
}

func changeAnswer(sc *journey.Context, key string, refill journey.Step) error {
	selector, err := sc.Components.ChangeLink(sc.Ctx, key)
	if err != nil {
		return err
	}
	if err := sc.Page.Click(sc.Ctx, selector); err != nil {
		return fmt.Errorf("change answer for %q: %w", key, err)
	}
	if err := refill(sc); err != nil {
		return fmt.Errorf("refill after change for %q: %w", key, err)
	}
	return sc.Runner.Continue(sc.Ctx)
}
