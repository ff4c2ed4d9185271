package runner

// Phase represents where a journey run currently is.
type Phase int

const (
	PhaseNotStarted Phase = iota // no journey started yet
	PhaseInStep                  // on a question page
	PhaseAtReview                // on the check-your-answers page
	PhaseSubmitted               // submission confirmed
)

// String returns the string representation of Phase
func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not-started"
	case PhaseInStep:
		return "in-step"
	case PhaseAtReview:
		return "at-review"
	case PhaseSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the phase is a final state
func (p Phase) IsTerminal() bool {
	return p == PhaseSubmitted
}
