package inventory

// Status is the lifecycle state of a donation lot.
type Status string

const (
	StatusPending     Status = "pending"
	StatusVerified    Status = "verified"
	StatusRejected    Status = "rejected"
	StatusDistributed Status = "distributed"
	StatusRecalled    Status = "recalled"
)

// rejected and recalled are terminal. distributed is terminal except for recall.
var validNext = map[Status]map[Status]bool{
	StatusPending:     {StatusVerified: true, StatusRejected: true, StatusRecalled: true},
	StatusVerified:    {StatusDistributed: true, StatusRecalled: true},
	StatusRejected:    {},
	StatusDistributed: {StatusRecalled: true},
	StatusRecalled:    {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func Terminal(s Status) bool {
	return len(validNext[s]) == 0
}

func ValidStatus(s Status) bool {
	_, ok := validNext[s]
	return ok
}
