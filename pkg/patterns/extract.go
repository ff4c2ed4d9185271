package patterns

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/journeylab-dev/journey-runner/pkg/dom"
)

// SummaryData extracts the key/value rows of the page's summary, using
// whichever idiom is detected. An unrecognised page yields an empty map.
func (d *Detector) SummaryData(ctx context.Context) (map[string]string, error) {
	snap, err := d.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return extractSummaryData(snap), nil
}

func extractSummaryData(snap *dom.Snapshot) map[string]string {
	data := make(map[string]string)
	switch classifySummaryList(snap) {
	case SummaryDesignSystemList:
		snap.Find(summaryRowSel).Each(func(_ int, row *goquery.Selection) {
			if !snap.Visible(row) {
				return
			}
			key := dom.Text(row.Find(summaryKeySel).First())
			value := dom.Text(row.Find(summaryValueSel).First())
			if key != "" {
				data[key] = value
			}
		})
	case SummaryDefinitionList:
		snap.Find("dl").Each(func(_ int, dl *goquery.Selection) {
			if !snap.Visible(dl) {
				return
			}
			// dt/dd pairs in document order; wrapper divs between the
			// dl and its terms are allowed.
			key := ""
			dl.Find("dt, dd").Each(func(_ int, el *goquery.Selection) {
				switch goquery.NodeName(el) {
				case "dt":
					key = dom.Text(el)
				case "dd":
					if key != "" {
						data[key] = dom.Text(el)
						key = ""
					}
				}
			})
		})
	case SummaryTable:
		snap.Find("table tr").Each(func(_ int, row *goquery.Selection) {
			if !snap.Visible(row) {
				return
			}
			cells := row.Find("th, td")
			if cells.Length() != 2 {
				return
			}
			key := dom.Text(cells.Eq(0))
			if key != "" {
				data[key] = dom.Text(cells.Eq(1))
			}
		})
	}
	return data
}

// ErrorMessages collects every visible validation message: summary box
// entries first, then per-field inline messages with their hidden
// "Error:" prefix stripped. A message shown in both places appears once.
func (d *Detector) ErrorMessages(ctx context.Context) ([]string, error) {
	snap, err := d.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return extractErrorMessages(snap), nil
}

func extractErrorMessages(snap *dom.Snapshot) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(msg string) {
		key := strings.ToLower(msg)
		if msg == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, msg)
	}
	snap.Find(errorSummarySel).Each(func(_ int, box *goquery.Selection) {
		if !snap.Visible(box) {
			return
		}
		box.Find("a").Each(func(_ int, link *goquery.Selection) {
			add(dom.Text(link))
		})
	})
	snap.Find(inlineErrorSel).Each(func(_ int, el *goquery.Selection) {
		if !snap.Visible(el) || insideErrorSummary(el) {
			return
		}
		add(stripErrorPrefix(dom.Text(el)))
	})
	return out
}
