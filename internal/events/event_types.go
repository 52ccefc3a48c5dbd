package events

import (
	"time"

	"github.com/spec-kit/ticket-genius/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated    EventType = "ticket_created"
	EventTicketUpdated    EventType = "ticket_updated"
	EventTicketDeleted    EventType = "ticket_deleted"
	EventTicketsSeeded    EventType = "tickets_seeded"
	EventSummaryGenerated EventType = "summary_generated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketSavedPayload accompanies created and updated events.
type TicketSavedPayload struct {
	Title            string                `json:"title"`
	Status           domain.TicketStatus   `json:"status"`
	Priority         domain.TicketPriority `json:"priority"`
	Owner            string                `json:"owner"`
	PreviousStatus   domain.TicketStatus   `json:"previous_status,omitempty"`
	PreviousPriority domain.TicketPriority `json:"previous_priority,omitempty"`
	SuggestionUsed   bool                  `json:"suggestion_used"`
}

// TicketsSeededPayload lists the demo ticket IDs written on first use.
type TicketsSeededPayload struct {
	TicketIDs []string `json:"ticket_ids"`
}

// SummaryGeneratedPayload records how a summary request ended.
type SummaryGeneratedPayload struct {
	TicketCount int  `json:"ticket_count"`
	Succeeded   bool `json:"succeeded"`
}
