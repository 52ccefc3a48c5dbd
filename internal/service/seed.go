package service

import (
	"time"

	"github.com/spec-kit/ticket-genius/internal/domain"
)

// DefaultSeedTickets is the demo dataset written when the store is first
// seen empty.
func DefaultSeedTickets(now time.Time) []domain.Ticket {
	now = now.UTC().Truncate(time.Millisecond)
	day := 24 * time.Hour
	return []domain.Ticket{
		{
			ID:          "T-1001",
			Title:       "Login Page Timeout",
			Description: "Users report the login page spins indefinitely on 3G networks.",
			Owner:       "Sarah Engineer",
			Status:      domain.TicketStatusAssigned,
			Priority:    domain.TicketPriorityHigh,
			NextAction:  "Check timeout configurations in load balancer.",
			CreatedAt:   now.Add(-2 * day),
			UpdatedAt:   now,
			Tags:        []string{"Performance", "Auth"},
		},
		{
			ID:          "T-1002",
			Title:       "Feature Request: Dark Mode",
			Description: "Client A wants a dark mode for the dashboard.",
			Owner:       domain.DefaultOwner,
			Status:      domain.TicketStatusUnassigned,
			Priority:    domain.TicketPriorityLow,
			NextAction:  "Discuss in next product roadmap meeting.",
			CreatedAt:   now.Add(-day),
			UpdatedAt:   now,
			Tags:        []string{"UX", "Feature"},
		},
	}
}
