package booking

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
	StatusNoShow     Status = "no_show"
)

func (s Status) String() string { return string(s) }

// validTransitions is the complete set of legal status moves. Anything not
// listed here is rejected.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusRefunded, StatusNoShow},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  {StatusRefunded},
}

// CanTransitionTo reports whether s may move to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the booking lifecycle has ended. A completed
// booking is terminal but can still be refunded.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRefunded, StatusNoShow:
		return true
	}
	return false
}

// RequiresAttribution reports whether entering s must record who caused it.
func (s Status) RequiresAttribution() bool {
	return s == StatusCancelled || s == StatusRefunded
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted,
		StatusCancelled, StatusRefunded, StatusNoShow:
		return true
	}
	return false
}

// AllStatuses lists every status in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted,
		StatusCancelled, StatusRefunded, StatusNoShow,
	}
}
