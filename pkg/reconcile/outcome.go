package reconcile

// Outcome summarizes what a handler did with an event.
type Outcome string

const (
	// OutcomeApplied means the store was mutated.
	OutcomeApplied Outcome = "applied"
	// OutcomeSkipped means the event was valid but could not be correlated
	// to an existing profile. It is acknowledged and never retried.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeIgnored means no handler exists for the event kind.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeFailed accompanies a non-nil error.
	OutcomeFailed Outcome = "failed"
)

func (o Outcome) String() string { return string(o) }
