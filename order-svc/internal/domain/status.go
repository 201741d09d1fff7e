package domain

import "fmt"

// Status is the lifecycle state of an order. The only legal progression is
// pending -> preparing -> completed, one step at a time.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusCompleted Status = "completed"
)

var statusFlow = map[Status]Status{
	StatusPending:   StatusPreparing,
	StatusPreparing: StatusCompleted,
}

var statusRank = map[Status]int{
	StatusPending:   0,
	StatusPreparing: 1,
	StatusCompleted: 2,
}

// Statuses lists every status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusPending, StatusPreparing, StatusCompleted}
}

func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.Valid() {
		return "", Validationf("parse status", "unknown status %q", s)
	}
	return status, nil
}

func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Next returns the status an order moves to from s. ok is false for the
// terminal status and for unknown values.
func (s Status) Next() (next Status, ok bool) {
	next, ok = statusFlow[s]
	return next, ok
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

// Rank orders statuses along the lifecycle: pending < preparing < completed.
func (s Status) Rank() int {
	if rank, ok := statusRank[s]; ok {
		return rank
	}
	return -1
}

// CanTransition reports whether to is the immediate successor of from.
func CanTransition(from, to Status) bool {
	next, ok := from.Next()
	return ok && next == to
}

func (s Status) String() string {
	return string(s)
}

func checkTransition(from, to Status) error {
	if !to.Valid() {
		return Validationf("advance order", "unknown status %q", to)
	}
	if CanTransition(from, to) {
		return nil
	}
	return &Error{
		Kind: ErrInvalidTransition,
		Op:   "advance order",
		Msg:  fmt.Sprintf("cannot move from %s to %s", from, to),
	}
}
