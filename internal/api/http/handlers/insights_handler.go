package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-genius/internal/api/dto"
	"github.com/spec-kit/ticket-genius/internal/service"
)

// InsightsHandler serves the backlog summary and activity feed.
type InsightsHandler struct {
	tickets  *service.TicketService
	activity *service.ActivityService
}

// NewInsightsHandler constructs handler.
func NewInsightsHandler(tickets *service.TicketService, activity *service.ActivityService) *InsightsHandler {
	return &InsightsHandler{tickets: tickets, activity: activity}
}

// GenerateSummary POST /api/insights/summary. The fallback text is a
// successful response; only a concurrent request is an error.
func (h *InsightsHandler) GenerateSummary(c *fiber.Ctx) error {
	result, err := h.tickets.GenerateSummary(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SummaryResponse{
		Text:      result.Text,
		Succeeded: result.Succeeded,
		State:     h.tickets.SummaryState(),
	}})
}

// SummaryState GET /api/insights/summary.
func (h *InsightsHandler) SummaryState(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.tickets.SummaryState()})
}

// Activity GET /api/activity?limit=.
func (h *InsightsHandler) Activity(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if h.activity == nil {
		return c.JSON(fiber.Map{"data": []service.ActivityEntry{}})
	}
	return c.JSON(fiber.Map{"data": h.activity.Recent(limit)})
}
