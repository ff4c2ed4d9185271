package dom

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Snapshot is a parsed copy of the page document. All reads against it
// see one consistent state; interactions happen elsewhere, against the
// live page.
type Snapshot struct {
	doc *goquery.Document
}

// Parse builds a snapshot from serialized HTML.
func Parse(htmlText string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return nil, fmt.Errorf("parse page snapshot: %w", err)
	}
	return &Snapshot{doc: doc}, nil
}

// Find returns the selection matching the CSS selector.
func (s *Snapshot) Find(selector string) *goquery.Selection {
	return s.doc.Find(selector)
}

// Visible reports whether the first element of the selection is rendered.
// An element is hidden by the hidden attribute, an inline display:none or
// visibility:hidden style, input type="hidden", or any hidden ancestor.
// Visually-hidden (screen-reader only) content counts as visible: it is
// accessible text, not hidden content.
func (s *Snapshot) Visible(sel *goquery.Selection) bool {
	if sel == nil || sel.Length() == 0 {
		return false
	}
	for cur := sel.First(); cur.Length() > 0; cur = cur.Parent() {
		name := goquery.NodeName(cur)
		if strings.HasPrefix(name, "#") {
			break
		}
		if _, hidden := cur.Attr("hidden"); hidden {
			return false
		}
		style := strings.ReplaceAll(cur.AttrOr("style", ""), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
		if name == "input" && cur.AttrOr("type", "") == "hidden" {
			return false
		}
		if name == "html" {
			break
		}
	}
	return true
}

// Text returns the normalised text content of a selection.
func Text(sel *goquery.Selection) string {
	return Normalize(sel.Text())
}

// Headings returns the normalised text of every visible h1-h6, in
// document order.
func (s *Snapshot) Headings() []string {
	var out []string
	s.doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, h *goquery.Selection) {
		if !s.Visible(h) {
			return
		}
		if t := Text(h); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// HasVisible reports whether any element matching the selector is rendered.
func (s *Snapshot) HasVisible(selector string) bool {
	found := false
	s.doc.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if s.Visible(el) {
			found = true
			return false
		}
		return true
	})
	return found
}

var simpleID = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// IDSelector returns a CSS selector addressing the given id, quoting it
// when the id contains characters that are unsafe in a #id selector.
func IDSelector(id string) string {
	if simpleID.MatchString(id) {
		return "#" + id
	}
	return fmt.Sprintf("[id=%q]", id)
}

// CSSPath returns a selector that uniquely addresses the first element of
// the selection on this document: the id when the element (or the nearest
// ancestor with one) has it, completed with a tag:nth-child chain below
// that point.
func CSSPath(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	var parts []string
	for cur := sel.First(); cur.Length() > 0; cur = cur.Parent() {
		name := goquery.NodeName(cur)
		if strings.HasPrefix(name, "#") {
			break
		}
		if id := cur.AttrOr("id", ""); id != "" {
			parts = append(parts, IDSelector(id))
			break
		}
		if name == "html" {
			parts = append(parts, "html")
			break
		}
		parts = append(parts, fmt.Sprintf("%s:nth-child(%d)", name, cur.Index()+1))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}
