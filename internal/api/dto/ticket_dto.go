package dto

import (
	"time"

	"github.com/spec-kit/ticket-genius/internal/domain"
)

// TicketRequest is the body of create and update calls. Empty status and
// priority fall back to Unassigned and Medium.
type TicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Owner       string                `json:"owner"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	NextAction  string                `json:"nextAction"`
	Tags        []string              `json:"tags"`
}

// TicketResponse mirrors the stored ticket.
type TicketResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Owner       string                `json:"owner"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	NextAction  string                `json:"nextAction"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
	Tags        []string              `json:"tags"`
}

// SuggestionRequest carries the description to analyse.
type SuggestionRequest struct {
	Description string `json:"description"`
}

// SuggestionResponse reports whether analysis produced fields to apply.
type SuggestionResponse struct {
	Applied    bool                     `json:"applied"`
	Suggestion *domain.TicketSuggestion `json:"suggestion"`
}

// AppliedSuggestionResponse is returned after analysing and saving a ticket.
type AppliedSuggestionResponse struct {
	Applied bool           `json:"applied"`
	Ticket  TicketResponse `json:"ticket"`
}

// SummaryResponse carries the display text and tracker state.
type SummaryResponse struct {
	Text      string `json:"text"`
	Succeeded bool   `json:"succeeded"`
	State     any    `json:"state"`
}
