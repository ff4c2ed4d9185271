// Package mock provides an in-memory page for testing without a browser.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/journeylab-dev/journey-runner/pkg/dom"
)

// Fill records one fill interaction for later inspection.
type Fill struct {
	Selector string
	Value    string
}

// transition is a pending document swap that becomes effective at a
// point in time.
type transition struct {
	at   time.Time
	html string
}

// clickRule describes what happens when a selector is clicked: swap the
// document, optionally after a delay.
type clickRule struct {
	delay time.Duration
	html  string
}

// Page is an in-memory implementation of core.Page backed by an HTML
// snapshot. Tests script it with routes, click rules and timed reveals,
// then inspect the interaction journals.
type Page struct {
	mu sync.Mutex

	html     string
	location string

	routes  map[string]string    // path → document served by Navigate
	onClick map[string]clickRule // selector → document swap
	pending []transition

	values      map[string]string // selector → value set by Fill
	clicks      []string
	fills       []Fill
	navigations []string
}

// New creates an empty mock page.
func New() *Page {
	return &Page{
		routes:  make(map[string]string),
		onClick: make(map[string]clickRule),
		values:  make(map[string]string),
	}
}

// NewWithHTML creates a mock page already showing the given document.
func NewWithHTML(html string) *Page {
	p := New()
	p.html = html
	return p
}

// SetHTML replaces the current document.
func (p *Page) SetHTML(html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.html = html
}

// Route serves the given document when Navigate is called with a URL
// ending in path.
func (p *Page) Route(path, html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes[path] = html
}

// OnClick swaps the document when the selector is clicked.
func (p *Page) OnClick(selector, html string) {
	p.OnClickAfter(selector, 0, html)
}

// OnClickAfter swaps the document a fixed delay after the selector is
// clicked, for exercising bounded waits.
func (p *Page) OnClickAfter(selector string, delay time.Duration, html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClick[selector] = clickRule{delay: delay, html: html}
}

// RevealAfter swaps the document a fixed delay from now.
func (p *Page) RevealAfter(delay time.Duration, html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, transition{at: time.Now().Add(delay), html: html})
}

// applyPending makes due transitions effective. Callers hold mu.
func (p *Page) applyPending() {
	now := time.Now()
	rest := p.pending[:0]
	for _, tr := range p.pending {
		if now.After(tr.at) || now.Equal(tr.at) {
			p.html = tr.html
		} else {
			rest = append(rest, tr)
		}
	}
	p.pending = rest
}

func (p *Page) snapshot() (*dom.Snapshot, error) {
	return dom.Parse(p.html)
}

// Navigate serves the routed document for the URL's trailing path.
func (p *Page) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigations = append(p.navigations, url)
	p.location = url
	for path, html := range p.routes {
		if len(url) >= len(path) && url[len(url)-len(path):] == path {
			p.html = html
			return nil
		}
	}
	return nil
}

// HTML returns the current document.
func (p *Page) HTML(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyPending()
	return p.html, nil
}

// Click journals the click and applies any scripted document swap.
func (p *Page) Click(_ context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyPending()
	snap, err := p.snapshot()
	if err != nil {
		return err
	}
	if snap.Find(selector).Length() == 0 {
		return fmt.Errorf("click: no element matching %q", selector)
	}
	p.clicks = append(p.clicks, selector)
	if rule, ok := p.onClick[selector]; ok {
		if rule.delay == 0 {
			p.html = rule.html
		} else {
			p.pending = append(p.pending, transition{at: time.Now().Add(rule.delay), html: rule.html})
		}
	}
	return nil
}

// Fill journals the fill and records the value for Value to read back.
func (p *Page) Fill(_ context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyPending()
	snap, err := p.snapshot()
	if err != nil {
		return err
	}
	if snap.Find(selector).Length() == 0 {
		return fmt.Errorf("fill: no element matching %q", selector)
	}
	p.fills = append(p.fills, Fill{Selector: selector, Value: value})
	p.values[selector] = value
	return nil
}

// Value returns the filled value for the selector, falling back to the
// element's value attribute.
func (p *Page) Value(_ context.Context, selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyPending()
	if v, ok := p.values[selector]; ok {
		return v, nil
	}
	snap, err := p.snapshot()
	if err != nil {
		return "", err
	}
	el := snap.Find(selector)
	if el.Length() == 0 {
		return "", fmt.Errorf("value: no element matching %q", selector)
	}
	return el.AttrOr("value", ""), nil
}

// IsVisible reports element visibility on the current document.
func (p *Page) IsVisible(_ context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyPending()
	snap, err := p.snapshot()
	if err != nil {
		return false, err
	}
	return snap.Visible(snap.Find(selector)), nil
}

// WaitVisible polls the document until the selector is visible or the
// context expires.
func (p *Page) WaitVisible(ctx context.Context, selector string) error {
	for {
		visible, err := p.IsVisible(ctx, selector)
		if err != nil {
			return err
		}
		if visible {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %q: %w", selector, ctx.Err())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// Attributes returns the attribute map of the first matching element.
func (p *Page) Attributes(_ context.Context, selector string) (map[string]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyPending()
	snap, err := p.snapshot()
	if err != nil {
		return nil, err
	}
	el := snap.Find(selector)
	if el.Length() == 0 {
		return nil, fmt.Errorf("attributes: no element matching %q", selector)
	}
	attrs := make(map[string]string)
	for _, a := range el.Get(0).Attr {
		attrs[a.Key] = a.Val
	}
	return attrs, nil
}

// Title returns the document title.
func (p *Page) Title(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyPending()
	snap, err := p.snapshot()
	if err != nil {
		return "", err
	}
	return dom.Text(snap.Find("title")), nil
}

// Location returns the last navigated URL.
func (p *Page) Location(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.location, nil
}

// Clicks returns the journal of clicked selectors.
func (p *Page) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicks...)
}

// Fills returns the journal of fill interactions.
func (p *Page) Fills() []Fill {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Fill(nil), p.fills...)
}

// Navigations returns the journal of navigated URLs.
func (p *Page) Navigations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigations...)
}
