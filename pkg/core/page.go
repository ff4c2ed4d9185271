// Package core defines the page abstraction and the shared value and
// error types used throughout the journey engine.
package core

import "context"

// Page is the primitive browser surface the engine drives.
// Implementations: chromedp session, in-memory mock.
// Higher layers (runner, patterns, journey) own all journey logic;
// Page just performs individual operations against the current document.
type Page interface {
	// Navigate loads the given URL and waits for the document to be ready
	Navigate(ctx context.Context, url string) error

	// HTML returns the serialized current document
	HTML(ctx context.Context) (string, error)

	// Click clicks the first element matching the CSS selector
	Click(ctx context.Context, selector string) error

	// Fill clears the matching input and types the value into it
	Fill(ctx context.Context, selector, value string) error

	// Value reads the current value of the matching form control
	Value(ctx context.Context, selector string) (string, error)

	// IsVisible reports whether the matching element is currently rendered
	IsVisible(ctx context.Context, selector string) (bool, error)

	// WaitVisible blocks until the matching element is rendered or ctx expires
	WaitVisible(ctx context.Context, selector string) error

	// Attributes returns the attribute map of the first matching element
	Attributes(ctx context.Context, selector string) (map[string]string, error)

	// Title returns the document title
	Title(ctx context.Context) (string, error)

	// Location returns the current URL
	Location(ctx context.Context) (string, error)
}
