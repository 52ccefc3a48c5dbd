package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spec-kit/ticket-genius/internal/domain"
	"github.com/spec-kit/ticket-genius/internal/persistence"
)

// ErrStorageCorrupt marks a stored collection that does not decode.
var ErrStorageCorrupt = errors.New("stored ticket collection is corrupt")

const (
	ticketIDPrefix = "T-"
	firstTicketNum = 1001
)

// TicketStore owns the durable ticket collection.
type TicketStore interface {
	// LoadAll returns the collection in stored order. A missing key yields an
	// empty collection. A corrupt payload yields an empty collection together
	// with an error wrapping ErrStorageCorrupt.
	LoadAll(ctx context.Context) ([]domain.Ticket, error)
	// Upsert replaces the ticket with the same ID in place, or appends it.
	Upsert(ctx context.Context, ticket domain.Ticket) error
	// Remove drops the ticket with id; an unknown id is not an error.
	Remove(ctx context.Context, id string) error
	// SeedIfEmpty writes seed only when the collection is empty and reports
	// whether it did.
	SeedIfEmpty(ctx context.Context, seed []domain.Ticket) (bool, error)
	// NextID returns an ID no stored ticket uses.
	NextID(ctx context.Context) (string, error)
}

// kvTicketStore serializes the whole collection under a single key. Every
// write is one Set of the full collection; there is no cross-process locking.
type kvTicketStore struct {
	kv  persistence.KeyValueStore
	key string
}

// NewTicketStore builds a store over kv addressed by key.
func NewTicketStore(kv persistence.KeyValueStore, key string) TicketStore {
	return &kvTicketStore{kv: kv, key: key}
}

func (s *kvTicketStore) LoadAll(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.load(ctx)
	if err != nil {
		if errors.Is(err, ErrStorageCorrupt) {
			return []domain.Ticket{}, err
		}
		return nil, err
	}
	return tickets, nil
}

func (s *kvTicketStore) Upsert(ctx context.Context, ticket domain.Ticket) error {
	tickets, err := s.load(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range tickets {
		if tickets[i].ID == ticket.ID {
			tickets[i] = ticket
			replaced = true
			break
		}
	}
	if !replaced {
		tickets = append(tickets, ticket)
	}
	return s.save(ctx, tickets)
}

func (s *kvTicketStore) Remove(ctx context.Context, id string) error {
	tickets, err := s.load(ctx)
	if err != nil {
		return err
	}
	filtered := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.ID != id {
			filtered = append(filtered, t)
		}
	}
	return s.save(ctx, filtered)
}

func (s *kvTicketStore) SeedIfEmpty(ctx context.Context, seed []domain.Ticket) (bool, error) {
	tickets, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	if len(tickets) > 0 {
		return false, nil
	}
	if seed == nil {
		seed = []domain.Ticket{}
	}
	if err := s.save(ctx, seed); err != nil {
		return false, err
	}
	return len(seed) > 0, nil
}

func (s *kvTicketStore) NextID(ctx context.Context) (string, error) {
	tickets, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return NextTicketID(tickets), nil
}

func (s *kvTicketStore) load(ctx context.Context) ([]domain.Ticket, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []domain.Ticket{}, nil
	}
	var tickets []domain.Ticket
	if err := json.Unmarshal([]byte(raw), &tickets); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageCorrupt, err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

func (s *kvTicketStore) save(ctx context.Context, tickets []domain.Ticket) error {
	payload, err := json.Marshal(tickets)
	if err != nil {
		return fmt.Errorf("encode tickets: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(payload)); err != nil {
		return fmt.Errorf("write %s: %w", s.key, err)
	}
	return nil
}

// NextTicketID returns T-<n> where n is one past the largest numeric suffix in
// tickets, or T-1001 when there is none. IDs that do not follow the T-<n>
// shape are ignored.
func NextTicketID(tickets []domain.Ticket) string {
	next := firstTicketNum
	for _, t := range tickets {
		n, ok := ticketNumber(t.ID)
		if ok && n >= next {
			next = n + 1
		}
	}
	return ticketIDPrefix + strconv.Itoa(next)
}

func ticketNumber(id string) (int, bool) {
	suffix, found := strings.CutPrefix(id, ticketIDPrefix)
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
