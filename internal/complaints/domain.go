// Package complaints handles operational complaint intake, assignment and
// resolution tracking.
package complaints

import "time"

// Status is the complaint lifecycle state.
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusAssigned   Status = "ASSIGNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
	StatusClosed     Status = "CLOSED"
)

// Valid reports whether the status is one of the fixed enumeration.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusAssigned, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// CanTransition reports whether the workflow permits the move. Assignment
// is the only way into ASSIGNED; CLOSED is terminal.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusOpen:
		return to == StatusClosed
	case StatusAssigned:
		return to == StatusInProgress || to == StatusResolved
	case StatusInProgress:
		return to == StatusResolved
	case StatusResolved:
		return to == StatusClosed || to == StatusInProgress
	}
	return false
}

// Priority orders the triage queue.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Valid reports whether the priority is one of the fixed enumeration.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Complaint is a tracked issue raised against the operation, optionally
// tied to a vendor.
type Complaint struct {
	ID          int64      `json:"id"`
	Subject     string     `json:"subject"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Reference   string     `json:"reference,omitempty"`
	VendorID    *int64     `json:"vendor_id,omitempty"`
	AssigneeID  *int64     `json:"assignee_id,omitempty"`
	Status      Status     `json:"status"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ListFilters narrows complaint listings.
type ListFilters struct {
	Page       int
	Limit      int
	Search     string
	Status     Status
	Priority   Priority
	AssigneeID int64
}

// Offset returns the row offset implied by the filters.
func (f ListFilters) Offset() int {
	off := (f.Page - 1) * f.Limit
	if off < 0 {
		return 0
	}
	return off
}
