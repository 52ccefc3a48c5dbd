package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-genius/internal/events"
)

// DefaultActivityLimit bounds the in-memory activity feed.
const DefaultActivityLimit = 100

// ActivityEntry is one line of the activity feed.
type ActivityEntry struct {
	EventID   string           `json:"eventId"`
	Type      events.EventType `json:"type"`
	TicketID  string           `json:"ticketId,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Payload   interface{}      `json:"payload,omitempty"`
}

// ActivityService records domain events to the log and keeps the most recent ones.
type ActivityService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	limit      int

	mu      sync.RWMutex
	entries []ActivityEntry
}

// NewActivityService creates the service. A non-positive limit uses DefaultActivityLimit.
func NewActivityService(dispatcher events.Dispatcher, logger *zap.Logger, limit int) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	return &ActivityService{
		dispatcher: dispatcher,
		logger:     logger,
		limit:      limit,
	}
}

// RegisterHandlers subscribes to events.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventTicketCreated, a.handleTicketSaved)
	a.dispatcher.Subscribe(events.EventTicketUpdated, a.handleTicketSaved)
	a.dispatcher.Subscribe(events.EventTicketDeleted, a.handleTicketDeleted)
	a.dispatcher.Subscribe(events.EventTicketsSeeded, a.handleTicketsSeeded)
	a.dispatcher.Subscribe(events.EventSummaryGenerated, a.handleSummaryGenerated)
}

// Recent returns up to n entries, newest first. n <= 0 returns all retained entries.
func (a *ActivityService) Recent(n int) []ActivityEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if n <= 0 || n > len(a.entries) {
		n = len(a.entries)
	}
	out := make([]ActivityEntry, 0, n)
	for i := len(a.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, a.entries[i])
	}
	return out
}

func (a *ActivityService) handleTicketSaved(ctx context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
	}
	if payload, ok := event.Payload.(events.TicketSavedPayload); ok {
		fields = append(fields,
			zap.String("status", string(payload.Status)),
			zap.String("priority", string(payload.Priority)),
			zap.Bool("suggestion_used", payload.SuggestionUsed))
		if payload.PreviousStatus != "" && payload.PreviousStatus != payload.Status {
			fields = append(fields, zap.String("previous_status", string(payload.PreviousStatus)))
		}
	}
	a.logger.Info("ticket saved", fields...)
	a.record(event)
	return nil
}

func (a *ActivityService) handleTicketDeleted(ctx context.Context, event events.Event) error {
	a.logger.Info("ticket deleted", zap.String("ticket_id", event.TicketID))
	a.record(event)
	return nil
}

func (a *ActivityService) handleTicketsSeeded(ctx context.Context, event events.Event) error {
	a.logger.Info("tickets seeded", zap.Any("payload", event.Payload))
	a.record(event)
	return nil
}

func (a *ActivityService) handleSummaryGenerated(ctx context.Context, event events.Event) error {
	a.logger.Info("summary generated", zap.Any("payload", event.Payload))
	a.record(event)
	return nil
}

func (a *ActivityService) record(event events.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, ActivityEntry{
		EventID:   event.ID,
		Type:      event.Type,
		TicketID:  event.TicketID,
		Timestamp: event.Timestamp,
		Payload:   event.Payload,
	})
	if over := len(a.entries) - a.limit; over > 0 {
		a.entries = append([]ActivityEntry(nil), a.entries[over:]...)
	}
}
