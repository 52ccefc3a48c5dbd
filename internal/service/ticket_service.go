package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-genius/internal/domain"
	"github.com/spec-kit/ticket-genius/internal/events"
	"github.com/spec-kit/ticket-genius/internal/repository"
	apperrors "github.com/spec-kit/ticket-genius/pkg/util"
)

// StatusFilterAll disables status filtering.
const StatusFilterAll = "All"

// Suggester produces field suggestions from a description.
type Suggester interface {
	Analyze(ctx context.Context, description string) (*domain.TicketSuggestion, bool)
}

// Summarizer produces a backlog summary; ok=false marks a fallback text.
type Summarizer interface {
	Summarize(ctx context.Context, digest string) (string, bool)
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	store       repository.TicketStore
	form        *FormController
	suggester   Suggester
	summarizer  Summarizer
	suggestions *RequestTracker[domain.TicketSuggestion]
	summaries   *RequestTracker[string]
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         func() time.Time
	seedDemo    bool

	// writeMu keeps read-modify-write cycles from interleaving inside this process.
	writeMu sync.Mutex
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store        repository.TicketStore
	Suggester    Suggester
	Summarizer   Summarizer
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Clock        func() time.Time
	SeedDemoData bool
}

// TicketFilter narrows ListTickets. Search matches title, ID and owner
// case-insensitively; Status is a status name or "All".
type TicketFilter struct {
	Search string
	Status string
}

// TicketStats are the dashboard counters.
type TicketStats struct {
	Total      int `json:"total"`
	Unassigned int `json:"unassigned"`
	Critical   int `json:"critical"`
	Resolved   int `json:"resolved"`
}

// SummaryResult is what a summary request shows to the user.
type SummaryResult struct {
	Text      string `json:"text"`
	Succeeded bool   `json:"succeeded"`
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		store:       deps.Store,
		form:        NewFormController(now),
		suggester:   deps.Suggester,
		summarizer:  deps.Summarizer,
		suggestions: NewRequestTracker[domain.TicketSuggestion](gatewaySuggestion, now),
		summaries:   NewRequestTracker[string](gatewaySummary, now),
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		now:         now,
		seedDemo:    deps.SeedDemoData,
	}
}

// Bootstrap writes the demo tickets when the store is empty. It runs before
// the first listing. An emptied store is seeded again on the next call.
func (s *TicketService) Bootstrap(ctx context.Context) (bool, error) {
	if !s.seedDemo {
		return false, nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	seed := DefaultSeedTickets(s.now())
	seeded, err := s.store.SeedIfEmpty(ctx, seed)
	if errors.Is(err, repository.ErrStorageCorrupt) {
		s.logger.Warn("stored tickets unreadable; skipping demo seed", zap.Error(err))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("seed tickets: %w", err)
	}
	if seeded {
		ids := make([]string, 0, len(seed))
		for _, t := range seed {
			ids = append(ids, t.ID)
		}
		s.logger.Info("seeded demo tickets", zap.Strings("ticket_ids", ids))
		s.publishEvent(ctx, events.Event{
			Type:    events.EventTicketsSeeded,
			Payload: events.TicketsSeededPayload{TicketIDs: ids},
		})
	}
	return seeded, nil
}

// ListTickets returns stored tickets matching filter, in stored order.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	status := strings.TrimSpace(filter.Status)
	if status != "" && status != StatusFilterAll && !domain.TicketStatus(status).Valid() {
		return nil, apperrors.NewValidationError("unknown status filter", map[string]any{"status": status})
	}

	tickets, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if status != "" && status != StatusFilterAll && string(t.Status) != status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.ID), search) &&
			!strings.Contains(strings.ToLower(t.Owner), search) {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

// GetTicket returns one ticket by ID.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	tickets, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		if tickets[i].ID == id {
			return &tickets[i], nil
		}
	}
	return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
}

// CreateTicket finalizes a new edit under a fresh ID and stores it.
func (s *TicketService) CreateTicket(ctx context.Context, edit TicketEdit) (*domain.Ticket, error) {
	if err := normalizeEdit(&edit); err != nil {
		return nil, err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.loadForWrite(ctx)
	if err != nil {
		return nil, err
	}
	ticket := s.form.Finalize(edit, nil, current)
	if err := s.store.Upsert(ctx, ticket); err != nil {
		return nil, s.writeError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload:  savedPayload(ticket, nil, false),
	})
	return &ticket, nil
}

// UpdateTicket finalizes an edit of an existing ticket and stores it.
func (s *TicketService) UpdateTicket(ctx context.Context, id string, edit TicketEdit) (*domain.Ticket, error) {
	return s.update(ctx, id, edit, false)
}

func (s *TicketService) update(ctx context.Context, id string, edit TicketEdit, suggested bool) (*domain.Ticket, error) {
	if err := normalizeEdit(&edit); err != nil {
		return nil, err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.loadForWrite(ctx)
	if err != nil {
		return nil, err
	}
	var existing *domain.Ticket
	for i := range current {
		if current[i].ID == id {
			existing = &current[i]
			break
		}
	}
	if existing == nil {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}

	ticket := s.form.Finalize(edit, existing, current)
	if err := s.store.Upsert(ctx, ticket); err != nil {
		return nil, s.writeError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		Payload:  savedPayload(ticket, existing, suggested),
	})
	return &ticket, nil
}

// DeleteTicket removes a ticket; deleting an unknown ID succeeds.
func (s *TicketService) DeleteTicket(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.store.Remove(ctx, id); err != nil {
		return s.writeError(err)
	}
	s.publishEvent(ctx, events.Event{Type: events.EventTicketDeleted, TicketID: id})
	return nil
}

// SuggestFields analyses a description. Only one analysis runs at a time.
func (s *TicketService) SuggestFields(ctx context.Context, description string) (*domain.TicketSuggestion, error) {
	if strings.TrimSpace(description) == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}
	if s.suggester == nil {
		return nil, apperrors.NewSuggestionUnavailable()
	}
	if err := s.suggestions.Start(); err != nil {
		return nil, apperrors.NewConflict("analysis already in progress", nil)
	}

	suggestion, ok := s.suggester.Analyze(ctx, description)
	if !ok || suggestion == nil {
		s.suggestions.Fail("no suggestion available")
		return nil, apperrors.NewSuggestionUnavailable()
	}
	s.suggestions.Succeed(*suggestion)
	return suggestion, nil
}

// ApplySuggestionToTicket analyses description (or the ticket's own when
// blank), merges the suggestion into the ticket and saves it. When no
// suggestion is produced the stored ticket is returned unchanged with applied=false.
func (s *TicketService) ApplySuggestionToTicket(ctx context.Context, id, description string) (*domain.Ticket, bool, error) {
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, false, err
	}
	edit := EditFromTicket(*ticket)
	if strings.TrimSpace(description) != "" {
		edit.Description = description
	}

	suggestion, err := s.SuggestFields(ctx, edit.Description)
	if err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == apperrors.CodeSuggestionUnavailable {
			return ticket, false, nil
		}
		return nil, false, err
	}

	s.form.ApplySuggestion(&edit, *suggestion)
	updated, err := s.update(ctx, id, edit, true)
	if err != nil {
		return nil, false, err
	}
	return updated, true, nil
}

// GenerateSummary summarizes every stored ticket. Only one summary runs at a time.
func (s *TicketService) GenerateSummary(ctx context.Context) (*SummaryResult, error) {
	if err := s.summaries.Start(); err != nil {
		return nil, apperrors.NewConflict("summary already in progress", nil)
	}

	tickets, err := s.readAll(ctx)
	if err != nil {
		s.summaries.Fail(SummaryErrorFallback)
		return nil, err
	}

	result := &SummaryResult{Text: SummaryErrorFallback}
	if s.summarizer != nil {
		result.Text, result.Succeeded = s.summarizer.Summarize(ctx, BuildDigest(tickets))
	}
	if result.Succeeded {
		s.summaries.Succeed(result.Text)
	} else {
		s.summaries.Fail(result.Text)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventSummaryGenerated,
		Payload: events.SummaryGeneratedPayload{TicketCount: len(tickets), Succeeded: result.Succeeded},
	})
	return result, nil
}

// SummaryState reports the summary request lifecycle.
func (s *TicketService) SummaryState() RequestSnapshot[string] {
	return s.summaries.Snapshot()
}

// SuggestionState reports the analysis request lifecycle.
func (s *TicketService) SuggestionState() RequestSnapshot[domain.TicketSuggestion] {
	return s.suggestions.Snapshot()
}

// Stats counts tickets for the dashboard cards.
func (s *TicketService) Stats(ctx context.Context) (TicketStats, error) {
	tickets, err := s.readAll(ctx)
	if err != nil {
		return TicketStats{}, err
	}
	stats := TicketStats{Total: len(tickets)}
	for _, t := range tickets {
		switch t.Status {
		case domain.TicketStatusUnassigned:
			stats.Unassigned++
		case domain.TicketStatusResolved:
			stats.Resolved++
		}
		if t.Priority == domain.TicketPriorityCritical {
			stats.Critical++
		}
	}
	return stats, nil
}

// readAll treats a corrupt collection as empty.
func (s *TicketService) readAll(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.store.LoadAll(ctx)
	if errors.Is(err, repository.ErrStorageCorrupt) {
		s.logger.Error("stored tickets unreadable; showing empty list", zap.Error(err))
		return []domain.Ticket{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load tickets: %w", err)
	}
	return tickets, nil
}

// loadForWrite refuses to build on a corrupt collection.
func (s *TicketService) loadForWrite(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, s.writeError(err)
	}
	return tickets, nil
}

func (s *TicketService) writeError(err error) error {
	if errors.Is(err, repository.ErrStorageCorrupt) {
		return apperrors.NewStorageCorrupt(err)
	}
	return fmt.Errorf("store tickets: %w", err)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// normalizeEdit fills enum defaults and rejects unknown values.
func normalizeEdit(edit *TicketEdit) error {
	if edit.Status == "" {
		edit.Status = domain.TicketStatusUnassigned
	}
	if edit.Priority == "" {
		edit.Priority = domain.TicketPriorityMedium
	}
	details := map[string]any{}
	if !edit.Status.Valid() {
		details["status"] = edit.Status
	}
	if !edit.Priority.Valid() {
		details["priority"] = edit.Priority
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket fields", details)
	}
	return nil
}

func savedPayload(ticket domain.Ticket, previous *domain.Ticket, suggested bool) events.TicketSavedPayload {
	payload := events.TicketSavedPayload{
		Title:          ticket.Title,
		Status:         ticket.Status,
		Priority:       ticket.Priority,
		Owner:          ticket.Owner,
		SuggestionUsed: suggested,
	}
	if previous != nil {
		payload.PreviousStatus = previous.Status
		payload.PreviousPriority = previous.Priority
	}
	return payload
}
