package domain

import "time"

// TicketStatus enumerates where a ticket stands. There is no transition graph;
// any status may follow any other.
type TicketStatus string

const (
	TicketStatusUnassigned TicketStatus = "Unassigned"
	TicketStatusAssigned   TicketStatus = "Assigned"
	TicketStatusDelayed    TicketStatus = "Delayed"
	TicketStatusResolved   TicketStatus = "Resolved"
)

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "Low"
	TicketPriorityMedium   TicketPriority = "Medium"
	TicketPriorityHigh     TicketPriority = "High"
	TicketPriorityCritical TicketPriority = "Critical"
)

// DefaultOwner is stored when a ticket is saved without an owner.
const DefaultOwner = "Unassigned"

// TicketStatuses lists every status in display order.
var TicketStatuses = []TicketStatus{
	TicketStatusUnassigned,
	TicketStatusAssigned,
	TicketStatusDelayed,
	TicketStatusResolved,
}

// TicketPriorities lists every priority from lowest to highest.
var TicketPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityCritical,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	for _, candidate := range TicketPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// Ticket is a persisted support request. The JSON names are the storage layout.
type Ticket struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Owner       string         `json:"owner"`
	Status      TicketStatus   `json:"status"`
	Priority    TicketPriority `json:"priority"`
	NextAction  string         `json:"nextAction"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Tags        []string       `json:"tags"`
}

// TicketSuggestion is produced by description analysis and only ever merged
// into an edit; it is never stored on its own.
type TicketSuggestion struct {
	Title      string         `json:"title"`
	NextAction string         `json:"nextAction"`
	Priority   TicketPriority `json:"priority"`
	Tags       []string       `json:"tags"`
}
