package service

import (
	"strings"
	"time"

	"github.com/spec-kit/ticket-genius/internal/domain"
	"github.com/spec-kit/ticket-genius/internal/repository"
)

// TicketEdit is the in-progress state of the ticket form.
type TicketEdit struct {
	Title       string
	Description string
	Owner       string
	Status      domain.TicketStatus
	Priority    domain.TicketPriority
	NextAction  string
	Tags        []string
}

// NewTicketEdit returns the blank form used for a new ticket.
func NewTicketEdit() TicketEdit {
	return TicketEdit{
		Status:   domain.TicketStatusUnassigned,
		Priority: domain.TicketPriorityMedium,
		Tags:     []string{},
	}
}

// EditFromTicket loads an existing ticket into the form.
func EditFromTicket(t domain.Ticket) TicketEdit {
	return TicketEdit{
		Title:       t.Title,
		Description: t.Description,
		Owner:       t.Owner,
		Status:      t.Status,
		Priority:    t.Priority,
		NextAction:  t.NextAction,
		Tags:        cloneTags(t.Tags),
	}
}

// FormController turns form state into ticket records.
type FormController struct {
	now func() time.Time
}

// NewFormController uses now as its clock; nil means time.Now.
func NewFormController(now func() time.Time) *FormController {
	if now == nil {
		now = time.Now
	}
	return &FormController{now: now}
}

// ApplySuggestion overwrites the fields analysis can fill. Description,
// owner and status are left alone.
func (f *FormController) ApplySuggestion(edit *TicketEdit, suggestion domain.TicketSuggestion) {
	edit.Title = suggestion.Title
	edit.NextAction = suggestion.NextAction
	edit.Priority = suggestion.Priority
	edit.Tags = cloneTags(suggestion.Tags)
}

// Finalize builds the ticket to persist. With an existing ticket the ID and
// creation time carry over; otherwise a fresh ID is minted from current.
// UpdatedAt never moves backwards relative to the stored ticket.
func (f *FormController) Finalize(edit TicketEdit, existing *domain.Ticket, current []domain.Ticket) domain.Ticket {
	now := f.now().UTC().Truncate(time.Millisecond)

	ticket := domain.Ticket{
		Title:       edit.Title,
		Description: edit.Description,
		Owner:       edit.Owner,
		Status:      edit.Status,
		Priority:    edit.Priority,
		NextAction:  edit.NextAction,
		Tags:        cloneTags(edit.Tags),
		UpdatedAt:   now,
	}
	if strings.TrimSpace(ticket.Owner) == "" {
		ticket.Owner = domain.DefaultOwner
	}
	if ticket.Tags == nil {
		ticket.Tags = []string{}
	}

	if existing != nil {
		ticket.ID = existing.ID
		ticket.CreatedAt = existing.CreatedAt
		if ticket.UpdatedAt.Before(existing.UpdatedAt) {
			ticket.UpdatedAt = existing.UpdatedAt
		}
	} else {
		ticket.ID = repository.NextTicketID(current)
		ticket.CreatedAt = now
	}
	if ticket.UpdatedAt.Before(ticket.CreatedAt) {
		ticket.UpdatedAt = ticket.CreatedAt
	}
	return ticket
}

func cloneTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	return append([]string{}, tags...)
}
