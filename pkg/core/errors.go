package core

import (
	"fmt"
	"strings"
	"time"
)

// AssertionError reports a verification failure together with what was
// actually observed on the page, so failures are diagnosable from the
// message alone.
type AssertionError struct {
	Subject  string   // what was being verified, e.g. "page heading"
	Expected string   // the expected value or condition
	Observed []string // what the page actually showed
}

// Error implements the error interface
func (e *AssertionError) Error() string {
	if len(e.Observed) == 0 {
		return fmt.Sprintf("%s: expected %s, found none", e.Subject, e.Expected)
	}
	return fmt.Sprintf("%s: expected %s, found: %s", e.Subject, e.Expected, strings.Join(e.Observed, "; "))
}

// ControlError reports a form control that could not be resolved by its
// label, listing the labels that were present on the page.
type ControlError struct {
	Label     string
	Available []string
}

// Error implements the error interface
func (e *ControlError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("no control labelled %q on this page", e.Label)
	}
	return fmt.Sprintf("no control labelled %q on this page, labels present: %s", e.Label, strings.Join(e.Available, "; "))
}

// SubmissionError reports a submission whose confirmation never appeared
// within the allowed time.
type SubmissionError struct {
	Timeout  time.Duration
	Headings []string // headings visible when the wait expired
	Cause    error
}

// Error implements the error interface
func (e *SubmissionError) Error() string {
	msg := fmt.Sprintf("no submission confirmation within %s", e.Timeout)
	if len(e.Headings) > 0 {
		msg += ", headings visible: " + strings.Join(e.Headings, "; ")
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *SubmissionError) Unwrap() error {
	return e.Cause
}
