package relay

// Status is the per-workflow-instance state threaded from submission through
// the downstream callback and the attach decision.
type Status string

const (
	StatusOpen           Status = "OPEN"
	StatusSubmitted      Status = "SUBMITTED"
	StatusRelayed        Status = "RELAYED"
	StatusCreated        Status = "CREATED"
	StatusAwaitingAttach Status = "AWAITING_ATTACH_DECISION"
	StatusAttaching      Status = "ATTACHING"
	StatusAttached       Status = "ATTACHED"
	StatusDeclined       Status = "DECLINED"
	StatusFailed         Status = "FAILED"
)

var validTransitions = map[Status][]Status{
	StatusOpen:           {StatusSubmitted, StatusFailed},
	StatusSubmitted:      {StatusRelayed, StatusFailed},
	StatusRelayed:        {StatusCreated, StatusFailed},
	StatusCreated:        {StatusAwaitingAttach, StatusFailed},
	StatusAwaitingAttach: {StatusAttaching, StatusDeclined, StatusFailed},
	StatusAttaching:      {StatusAttached, StatusFailed},
	StatusAttached:       {},
	StatusDeclined:       {},
	StatusFailed:         {},
}

// CanTransition reports whether moving from one status to another is
// allowed. Terminal statuses have no outgoing transitions.
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a workflow can make no further progress.
func Terminal(s Status) bool {
	return len(validTransitions[s]) == 0
}
