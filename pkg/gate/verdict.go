package gate

// Decision is the gate's answer for one request.
type Decision string

const (
	DecisionAllow    Decision = "allow"
	DecisionDeny     Decision = "deny"
	DecisionRedirect Decision = "redirect"
)

// Request is the transport-independent input of a decision.
type Request struct {
	Path   string
	UserID string // empty for anonymous requests
}

// Verdict is the outcome of Decide. Location is set for redirects.
type Verdict struct {
	Decision Decision
	Location string
	Reason   string
}

func allow(reason string) Verdict {
	return Verdict{Decision: DecisionAllow, Reason: reason}
}

func deny(reason string) Verdict {
	return Verdict{Decision: DecisionDeny, Reason: reason}
}

func redirect(location, reason string) Verdict {
	return Verdict{Decision: DecisionRedirect, Location: location, Reason: reason}
}
