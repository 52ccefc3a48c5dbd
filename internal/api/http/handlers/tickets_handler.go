package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-genius/internal/api/dto"
	"github.com/spec-kit/ticket-genius/internal/domain"
	"github.com/spec-kit/ticket-genius/internal/service"
	apperrors "github.com/spec-kit/ticket-genius/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := service.TicketFilter{
		Search: c.Query("q"),
		Status: c.Query("status"),
	}
	tickets, err := h.service.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.TicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), editFromRequest(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// UpdateTicket PUT /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.TicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.UpdateTicket(c.UserContext(), c.Params("id"), editFromRequest(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// DeleteTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.service.DeleteTicket(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SuggestFields POST /api/tickets/suggestions. An analysis that yields
// nothing is a normal outcome and answers 200 with applied=false.
func (h *TicketsHandler) SuggestFields(c *fiber.Ctx) error {
	var req dto.SuggestionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	suggestion, err := h.service.SuggestFields(c.UserContext(), req.Description)
	if isSuggestionUnavailable(err) {
		return c.JSON(fiber.Map{"data": dto.SuggestionResponse{Applied: false}})
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SuggestionResponse{Applied: true, Suggestion: suggestion}})
}

// ApplySuggestion POST /api/tickets/:id/suggestions.
func (h *TicketsHandler) ApplySuggestion(c *fiber.Ctx) error {
	var req dto.SuggestionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	ticket, applied, err := h.service.ApplySuggestionToTicket(c.UserContext(), c.Params("id"), req.Description)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AppliedSuggestionResponse{
		Applied: applied,
		Ticket:  ticketResponse(ticket),
	}})
}

// Stats GET /api/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

func editFromRequest(req dto.TicketRequest) service.TicketEdit {
	tags := make([]string, 0, len(req.Tags))
	for _, tag := range req.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return service.TicketEdit{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Owner:       strings.TrimSpace(req.Owner),
		Status:      req.Status,
		Priority:    req.Priority,
		NextAction:  req.NextAction,
		Tags:        tags,
	}
}

func isSuggestionUnavailable(err error) bool {
	var domainErr *apperrors.DomainError
	return errors.As(err, &domainErr) && domainErr.Code == apperrors.CodeSuggestionUnavailable
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	tags := ticket.Tags
	if tags == nil {
		tags = []string{}
	}
	return dto.TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Owner:       ticket.Owner,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		NextAction:  ticket.NextAction,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
		Tags:        tags,
	}
}
