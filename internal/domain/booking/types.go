package booking

// Status is the lifecycle state of one booking record. Records are never
// hard-deleted; cancellation and transfer are transitions, not removals.
type Status string

const (
	// StatusConfirmed holds one unit of pool capacity.
	StatusConfirmed Status = "confirmed"
	// StatusWaitlisted is queued for promotion; holds no capacity.
	StatusWaitlisted Status = "waitlisted"
	// StatusApproved is a confirmed appointment ratified by staff. Still
	// holds capacity.
	StatusApproved Status = "approved"
	// StatusCompleted and StatusCancelled are terminal.
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	// StatusTransferred marks a record superseded by a new one in another
	// pool after a reschedule.
	StatusTransferred Status = "transferred"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusConfirmed, StatusWaitlisted, StatusApproved,
		StatusCompleted, StatusCancelled, StatusTransferred:
		return true
	default:
		return false
	}
}

// HoldsCapacity reports whether a record in this status occupies one unit
// of its pool's capacity.
func (s Status) HoldsCapacity() bool {
	return s == StatusConfirmed || s == StatusApproved
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusTransferred:
		return true
	default:
		return false
	}
}
