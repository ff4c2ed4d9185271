// Package patterns classifies how a journey's pages present errors,
// summaries and navigation, so that step blocks can adapt to the
// idioms of the service under test instead of hard-coding one markup
// style.
package patterns

// ErrorDisplay identifies where a page surfaces validation errors.
type ErrorDisplay int

const (
	ErrorsNone    ErrorDisplay = iota // no visible error markup
	ErrorsSummary                     // error summary box only
	ErrorsInline                      // per-field messages only
	ErrorsBoth                        // summary box and per-field messages
)

// String returns the string representation of ErrorDisplay
func (e ErrorDisplay) String() string {
	switch e {
	case ErrorsNone:
		return "none"
	case ErrorsSummary:
		return "summary"
	case ErrorsInline:
		return "inline"
	case ErrorsBoth:
		return "both"
	default:
		return "unknown"
	}
}

// SummaryListKind identifies the markup idiom of a check-your-answers
// summary.
type SummaryListKind int

const (
	SummaryNone             SummaryListKind = iota // no recognisable summary
	SummaryDesignSystemList                        // design-system summary list component
	SummaryDefinitionList                          // plain dl with dt/dd pairs
	SummaryTable                                   // two-column table
)

// String returns the string representation of SummaryListKind
func (s SummaryListKind) String() string {
	switch s {
	case SummaryNone:
		return "none"
	case SummaryDesignSystemList:
		return "design-system-list"
	case SummaryDefinitionList:
		return "definition-list"
	case SummaryTable:
		return "table"
	default:
		return "unknown"
	}
}

// BackNavKind identifies how a page offers backwards navigation.
type BackNavKind int

const (
	BackNone   BackNavKind = iota // no back affordance
	BackButton                    // button labelled Back
	BackLink                      // link labelled Back
	BackBoth                      // both forms present
)

// String returns the string representation of BackNavKind
func (b BackNavKind) String() string {
	switch b {
	case BackNone:
		return "none"
	case BackButton:
		return "button"
	case BackLink:
		return "link"
	case BackBoth:
		return "both"
	default:
		return "unknown"
	}
}

// Journey records every detected idiom for the service under test.
// Computed fresh on each Detect call, never cached: journeys can change
// idiom between pages.
type Journey struct {
	ErrorDisplay         ErrorDisplay
	SummaryList          SummaryListKind
	SupportsChangeAnswer bool
	BackNav              BackNavKind
	TypographicQuotes    bool
}
