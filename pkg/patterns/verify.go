package patterns

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/journeylab-dev/journey-runner/pkg/core"
	"github.com/journeylab-dev/journey-runner/pkg/dom"
)

// VerifyErrors asserts that each expected message appears among the
// page's validation messages. Matching is a case-insensitive substring
// check, so expectations may quote just the distinctive part of a
// message. Extra messages on the page never fail the check.
func (d *Detector) VerifyErrors(ctx context.Context, expected ...string) error {
	msgs, err := d.ErrorMessages(ctx)
	if err != nil {
		return err
	}
	var missing []string
	for _, want := range expected {
		needle := strings.ToLower(dom.Normalize(want))
		found := false
		for _, got := range msgs {
			if strings.Contains(strings.ToLower(got), needle) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, fmt.Sprintf("%q", want))
		}
	}
	if len(missing) > 0 {
		return &core.AssertionError{
			Subject:  "validation errors",
			Expected: "messages containing " + strings.Join(missing, ", "),
			Observed: msgs,
		}
	}
	return nil
}

// VerifySummaryData asserts that each expected key is present in the
// page's summary with the expected value. Keys the page shows beyond the
// expected set never fail the check.
func (d *Detector) VerifySummaryData(ctx context.Context, expected map[string]string) error {
	data, err := d.SummaryData(ctx)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		got, ok := data[dom.Normalize(key)]
		if !ok {
			got, ok = data[key]
		}
		if !ok {
			return &core.AssertionError{
				Subject:  "summary data",
				Expected: fmt.Sprintf("row %q", key),
				Observed: availableKeys(data),
			}
		}
		if dom.Normalize(got) != dom.Normalize(expected[key]) {
			return &core.AssertionError{
				Subject:  fmt.Sprintf("summary row %q", key),
				Expected: fmt.Sprintf("%q", expected[key]),
				Observed: []string{got},
			}
		}
	}
	return nil
}

func availableKeys(data map[string]string) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
