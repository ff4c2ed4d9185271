package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/journeylab-dev/journey-runner/pkg/core"
	"github.com/journeylab-dev/journey-runner/pkg/dom"
)

// Components resolves page controls from their user-facing labels into
// concrete selectors. Every method works against a fresh snapshot and
// makes a single resolution attempt; callers that need to wait poll
// around it.
type Components struct {
	page core.Page
	log  *zap.Logger
}

// NewComponents creates a resolver over the given page. A nil logger
// disables logging.
func NewComponents(page core.Page, log *zap.Logger) *Components {
	if log == nil {
		log = zap.NewNop()
	}
	return &Components{page: page, log: log}
}

func (c *Components) snapshot(ctx context.Context) (*dom.Snapshot, error) {
	htmlText, err := c.page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page for control resolution: %w", err)
	}
	return dom.Parse(htmlText)
}

// Input resolves a form control from its label text: a label with a
// matching for attribute, then a label wrapping the control, then an
// aria-label.
func (c *Components) Input(ctx context.Context, label string) (*core.Control, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if control := resolveInput(snap, snap.Find("label"), label); control != nil {
		return control, nil
	}
	if control := resolveAriaLabel(snap, label); control != nil {
		return control, nil
	}
	return nil, &core.ControlError{Label: label, Available: visibleLabels(snap)}
}

// Option resolves a radio or checkbox option from its label text.
func (c *Components) Option(ctx context.Context, label string) (*core.Control, error) {
	control, err := c.Input(ctx, label)
	if err != nil {
		return nil, err
	}
	if control.Kind != core.ControlRadio && control.Kind != core.ControlCheckbox {
		return nil, &core.ControlError{Label: label}
	}
	return control, nil
}

// OptionInGroup resolves an option inside the fieldset whose legend
// matches. This is the role-based fallback for radio groups where the
// question text is the legend, not the option label.
func (c *Components) OptionInGroup(ctx context.Context, legend, option string) (*core.Control, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	want := dom.Normalize(legend)
	var control *core.Control
	snap.Find("fieldset").EachWithBreak(func(_ int, fs *goquery.Selection) bool {
		if dom.Text(fs.Find("legend").First()) != want {
			return true
		}
		control = resolveInput(snap, fs.Find("label"), option)
		return control == nil
	})
	if control == nil {
		return nil, &core.ControlError{Label: legend + ": " + option, Available: visibleLabels(snap)}
	}
	return control, nil
}

// Button resolves the first visible button matching any of the labels,
// in order: button elements, submit/button inputs, role=button.
func (c *Components) Button(ctx context.Context, labels ...string) (string, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return "", err
	}
	for _, label := range labels {
		if sel := resolveButton(snap, label); sel != "" {
			return sel, nil
		}
	}
	return "", &core.ControlError{Label: strings.Join(labels, " / "), Available: visibleButtonLabels(snap)}
}

// Link resolves a visible link from its text.
func (c *Components) Link(ctx context.Context, text string) (string, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return "", err
	}
	want := dom.Normalize(text)
	selector := ""
	snap.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if snap.Visible(a) && dom.Text(a) == want {
			selector = elementSelector(a)
			return false
		}
		return true
	})
	if selector == "" {
		return "", &core.ControlError{Label: text}
	}
	return selector, nil
}

// BackControl resolves the page's backwards-navigation affordance:
// a Back button first, then a Back link, then the design-system back
// link class.
func (c *Components) BackControl(ctx context.Context) (string, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return "", err
	}
	if sel := resolveButton(snap, "Back"); sel != "" {
		return sel, nil
	}
	selector := ""
	snap.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if snap.Visible(a) && (dom.Text(a) == "Back" || a.Is(".govuk-back-link")) {
			selector = elementSelector(a)
			return false
		}
		return true
	})
	if selector == "" {
		return "", &core.ControlError{Label: "Back"}
	}
	return selector, nil
}

// ChangeLink resolves the change-answer affordance for a summary row:
// the action link of the row whose key matches, then any link or button
// labelled "Change <key>".
func (c *Components) ChangeLink(ctx context.Context, key string) (string, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return "", err
	}
	want := dom.Normalize(key)
	selector := ""
	snap.Find(".govuk-summary-list__row").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if dom.Text(row.Find(".govuk-summary-list__key").First()) != want {
			return true
		}
		link := row.Find("a, button").FilterFunction(func(_ int, el *goquery.Selection) bool {
			return strings.HasPrefix(dom.Text(el), "Change")
		}).First()
		if link.Length() > 0 {
			selector = elementSelector(link)
		}
		return false
	})
	if selector != "" {
		return selector, nil
	}
	lowerWant := strings.ToLower(want)
	snap.Find("a, button").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if !snap.Visible(el) {
			return true
		}
		text := strings.ToLower(dom.Text(el))
		if text == "change "+lowerWant {
			selector = elementSelector(el)
			return false
		}
		return true
	})
	if selector == "" {
		return "", &core.ControlError{Label: "Change " + key}
	}
	return selector, nil
}

// DateControls addresses a date question: either three part inputs or a
// single combined text input.
type DateControls struct {
	Day      string
	Month    string
	Year     string
	Combined string
}

// Parts reports whether the date is split over day/month/year inputs.
func (d DateControls) Parts() bool {
	return d.Day != "" && d.Month != "" && d.Year != ""
}

// DateGroup resolves a date question from its legend or label: the
// fieldset's day/month/year inputs by id suffix, falling back to one
// combined text input.
func (c *Components) DateGroup(ctx context.Context, label string) (*DateControls, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	want := dom.Normalize(label)
	var controls *DateControls
	snap.Find("fieldset").EachWithBreak(func(_ int, fs *goquery.Selection) bool {
		if dom.Text(fs.Find("legend").First()) != want {
			return true
		}
		day := fs.Find(`input[id$="-day"]`).First()
		month := fs.Find(`input[id$="-month"]`).First()
		year := fs.Find(`input[id$="-year"]`).First()
		if day.Length() > 0 && month.Length() > 0 && year.Length() > 0 {
			controls = &DateControls{
				Day:   elementSelector(day),
				Month: elementSelector(month),
				Year:  elementSelector(year),
			}
		}
		return false
	})
	if controls != nil {
		return controls, nil
	}
	if control := resolveInput(snap, snap.Find("label"), label); control != nil && control.Kind == core.ControlText {
		return &DateControls{Combined: control.Selector}, nil
	}
	return nil, &core.ControlError{Label: label, Available: visibleLabels(snap)}
}

// Labels returns every visible label and legend text on the page, for
// diagnostics.
func (c *Components) Labels(ctx context.Context) ([]string, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return visibleLabels(snap), nil
}

// resolveInput finds the control for a label within the given label
// selection.
func resolveInput(snap *dom.Snapshot, labels *goquery.Selection, label string) *core.Control {
	want := dom.Normalize(label)
	var control *core.Control
	labels.EachWithBreak(func(_ int, lb *goquery.Selection) bool {
		if dom.Text(lb) != want {
			return true
		}
		if forID := lb.AttrOr("for", ""); forID != "" {
			target := snap.Find(dom.IDSelector(forID)).First()
			if target.Length() > 0 && target.AttrOr("type", "") != "hidden" {
				control = controlFor(target, label)
				return false
			}
		}
		inner := lb.Find("input, textarea, select").First()
		if inner.Length() > 0 && inner.AttrOr("type", "") != "hidden" {
			control = controlFor(inner, label)
			return false
		}
		return true
	})
	return control
}

func resolveAriaLabel(snap *dom.Snapshot, label string) *core.Control {
	want := dom.Normalize(label)
	var control *core.Control
	snap.Find("input, textarea, select").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if dom.Normalize(el.AttrOr("aria-label", "")) == want && el.AttrOr("type", "") != "hidden" {
			control = controlFor(el, label)
			return false
		}
		return true
	})
	return control
}

func resolveButton(snap *dom.Snapshot, label string) string {
	want := dom.Normalize(label)
	selector := ""
	snap.Find("button").EachWithBreak(func(_ int, b *goquery.Selection) bool {
		if snap.Visible(b) && dom.Text(b) == want {
			selector = elementSelector(b)
			return false
		}
		return true
	})
	if selector != "" {
		return selector
	}
	snap.Find(`input[type="submit"], input[type="button"]`).EachWithBreak(func(_ int, b *goquery.Selection) bool {
		if snap.Visible(b) && dom.Normalize(b.AttrOr("value", "")) == want {
			selector = elementSelector(b)
			return false
		}
		return true
	})
	if selector != "" {
		return selector
	}
	snap.Find(`[role="button"]`).EachWithBreak(func(_ int, b *goquery.Selection) bool {
		if snap.Visible(b) && dom.Text(b) == want {
			selector = elementSelector(b)
			return false
		}
		return true
	})
	return selector
}

// controlFor builds the Control record for a resolved element: its id
// when it has one, a structural path otherwise, and the kind from the
// element's declared type.
func controlFor(el *goquery.Selection, label string) *core.Control {
	return &core.Control{
		Selector: elementSelector(el),
		Kind:     controlKind(el),
		Label:    label,
	}
}

func elementSelector(el *goquery.Selection) string {
	if id := el.AttrOr("id", ""); id != "" {
		return dom.IDSelector(id)
	}
	return dom.CSSPath(el)
}

func controlKind(el *goquery.Selection) core.ControlKind {
	switch goquery.NodeName(el) {
	case "select":
		return core.ControlSelect
	case "textarea":
		return core.ControlText
	}
	switch el.AttrOr("type", "") {
	case "radio":
		return core.ControlRadio
	case "checkbox":
		return core.ControlCheckbox
	default:
		return core.ControlText
	}
}

func visibleLabels(snap *dom.Snapshot) []string {
	var out []string
	seen := make(map[string]bool)
	snap.Find("label, legend").Each(func(_ int, el *goquery.Selection) {
		if !snap.Visible(el) {
			return
		}
		text := dom.Text(el)
		if text != "" && !seen[text] {
			seen[text] = true
			out = append(out, text)
		}
	})
	return out
}

func visibleButtonLabels(snap *dom.Snapshot) []string {
	var out []string
	snap.Find("button").Each(func(_ int, b *goquery.Selection) {
		if snap.Visible(b) {
			if text := dom.Text(b); text != "" {
				out = append(out, text)
			}
		}
	})
	snap.Find(`input[type="submit"], input[type="button"]`).Each(func(_ int, b *goquery.Selection) {
		if snap.Visible(b) {
			if text := dom.Normalize(b.AttrOr("value", "")); text != "" {
				out = append(out, text)
			}
		}
	})
	return out
}
