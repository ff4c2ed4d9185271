package patterns

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/journeylab-dev/journey-runner/pkg/core"
	"github.com/journeylab-dev/journey-runner/pkg/dom"
)

// Landmark selectors for the markup idioms the detector recognises.
const (
	errorSummarySel  = `.govuk-error-summary, [data-module="error-summary"]`
	inlineErrorSel   = `.govuk-error-message, [id$="-error"]`
	summaryListSel   = ".govuk-summary-list"
	summaryRowSel    = ".govuk-summary-list__row"
	summaryKeySel    = ".govuk-summary-list__key"
	summaryValueSel  = ".govuk-summary-list__value"
	backLinkClassSel = ".govuk-back-link"
)

// Detector inspects the current page and classifies its markup idioms.
// It only ever reads page state; a lookup that finds nothing is a normal
// negative result, not an error.
type Detector struct {
	page core.Page
	log  *zap.Logger
}

// NewDetector creates a detector over the given page. A nil logger
// disables logging.
func NewDetector(page core.Page, log *zap.Logger) *Detector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Detector{page: page, log: log}
}

func (d *Detector) snapshot(ctx context.Context) (*dom.Snapshot, error) {
	htmlText, err := d.page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page for pattern detection: %w", err)
	}
	return dom.Parse(htmlText)
}

// Detect classifies every idiom from a single page snapshot.
func (d *Detector) Detect(ctx context.Context) (Journey, error) {
	snap, err := d.snapshot(ctx)
	if err != nil {
		return Journey{}, err
	}
	j := Journey{
		ErrorDisplay:         classifyErrorDisplay(snap),
		SummaryList:          classifySummaryList(snap),
		SupportsChangeAnswer: classifyChangeAnswer(snap),
		BackNav:              classifyBackNav(snap),
		TypographicQuotes:    classifyTypographicQuotes(snap),
	}
	d.log.Debug("detected journey patterns",
		zap.String("errorDisplay", j.ErrorDisplay.String()),
		zap.String("summaryList", j.SummaryList.String()),
		zap.Bool("changeAnswer", j.SupportsChangeAnswer),
		zap.String("backNav", j.BackNav.String()),
		zap.Bool("typographicQuotes", j.TypographicQuotes))
	return j, nil
}

// DetectErrorDisplay classifies how the current page shows validation
// errors.
func (d *Detector) DetectErrorDisplay(ctx context.Context) (ErrorDisplay, error) {
	snap, err := d.snapshot(ctx)
	if err != nil {
		return ErrorsNone, err
	}
	return classifyErrorDisplay(snap), nil
}

// DetectSummaryList classifies the summary idiom of the current page.
func (d *Detector) DetectSummaryList(ctx context.Context) (SummaryListKind, error) {
	snap, err := d.snapshot(ctx)
	if err != nil {
		return SummaryNone, err
	}
	return classifySummaryList(snap), nil
}

// DetectChangeAnswerSupport reports whether the current page offers
// change-answer affordances.
func (d *Detector) DetectChangeAnswerSupport(ctx context.Context) (bool, error) {
	snap, err := d.snapshot(ctx)
	if err != nil {
		return false, err
	}
	return classifyChangeAnswer(snap), nil
}

// DetectBackNav classifies the backwards-navigation affordance of the
// current page.
func (d *Detector) DetectBackNav(ctx context.Context) (BackNavKind, error) {
	snap, err := d.snapshot(ctx)
	if err != nil {
		return BackNone, err
	}
	return classifyBackNav(snap), nil
}

// DetectTypographicQuotes reports whether the current page's copy uses
// typographic quotes.
func (d *Detector) DetectTypographicQuotes(ctx context.Context) (bool, error) {
	snap, err := d.snapshot(ctx)
	if err != nil {
		return false, err
	}
	return classifyTypographicQuotes(snap), nil
}

func classifyErrorDisplay(snap *dom.Snapshot) ErrorDisplay {
	summary := snap.HasVisible(errorSummarySel)
	inline := false
	snap.Find(inlineErrorSel).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if !snap.Visible(el) || insideErrorSummary(el) {
			return true
		}
		if stripErrorPrefix(dom.Text(el)) != "" {
			inline = true
			return false
		}
		return true
	})
	switch {
	case summary && inline:
		return ErrorsBoth
	case summary:
		return ErrorsSummary
	case inline:
		return ErrorsInline
	default:
		return ErrorsNone
	}
}

// classifySummaryList checks idioms in priority order: the design-system
// component, then a plain definition list, then a two-column table.
func classifySummaryList(snap *dom.Snapshot) SummaryListKind {
	if snap.HasVisible(summaryListSel) && snap.Find(summaryRowSel).Length() > 0 {
		return SummaryDesignSystemList
	}
	kind := SummaryNone
	snap.Find("dl").EachWithBreak(func(_ int, dl *goquery.Selection) bool {
		if snap.Visible(dl) && dl.Find("dt").Length() > 0 && dl.Find("dd").Length() > 0 {
			kind = SummaryDefinitionList
			return false
		}
		return true
	})
	if kind != SummaryNone {
		return kind
	}
	snap.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		if !snap.Visible(table) {
			return true
		}
		rows := table.Find("tr")
		if rows.Length() == 0 {
			return true
		}
		twoCol := true
		rows.Each(func(_ int, row *goquery.Selection) {
			if row.Find("th, td").Length() != 2 {
				twoCol = false
			}
		})
		if twoCol {
			kind = SummaryTable
			return false
		}
		return true
	})
	return kind
}

func classifyChangeAnswer(snap *dom.Snapshot) bool {
	found := false
	snap.Find("a, button").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if !snap.Visible(el) {
			return true
		}
		text := dom.Text(el)
		if text == "Change" || strings.HasPrefix(text, "Change ") {
			found = true
			return false
		}
		return true
	})
	return found
}

func classifyBackNav(snap *dom.Snapshot) BackNavKind {
	button := false
	link := false
	snap.Find("button").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if snap.Visible(el) && dom.Text(el) == "Back" {
			button = true
			return false
		}
		return true
	})
	snap.Find("a").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if !snap.Visible(el) {
			return true
		}
		if dom.Text(el) == "Back" || el.Is(backLinkClassSel) {
			link = true
			return false
		}
		return true
	})
	switch {
	case button && link:
		return BackBoth
	case button:
		return BackButton
	case link:
		return BackLink
	default:
		return BackNone
	}
}

func classifyTypographicQuotes(snap *dom.Snapshot) bool {
	return strings.ContainsAny(snap.Find("body").Text(), "‘’“”")
}

func insideErrorSummary(el *goquery.Selection) bool {
	return el.Closest(errorSummarySel).Length() > 0
}

func stripErrorPrefix(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, "Error:"))
}
