package entity

// Outcome is the result of a single refresh call.
type Outcome int

const (
	// OutcomeGated means premium or module gating prevented the refresh.
	OutcomeGated Outcome = iota
	// OutcomeSkipped means the section was already loading or loaded.
	OutcomeSkipped
	// OutcomeLoaded means fresh data was committed.
	OutcomeLoaded
	// OutcomeFailed means the query or parsing failed and was reported.
	OutcomeFailed
	// OutcomeDiscarded means the section was reset while the query was in flight.
	OutcomeDiscarded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGated:
		return "gated"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeLoaded:
		return "loaded"
	case OutcomeFailed:
		return "failed"
	case OutcomeDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// MarshalText renders the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}
