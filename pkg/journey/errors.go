package journey

import "fmt"

// StepError attributes a failure to its position in the executed
// pipeline, 1-based.
type StepError struct {
	Index int
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *StepError) Unwrap() error {
	return e.Err
}

// ParseError represents a journey definition error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}
