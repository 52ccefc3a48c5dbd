package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-genius/internal/config"
	"github.com/spec-kit/ticket-genius/internal/domain"
	"github.com/spec-kit/ticket-genius/internal/llm"
	"github.com/spec-kit/ticket-genius/internal/observability"
)

const gatewaySuggestion = "suggestion"

const suggestionPrompt = "You are a helpful IT and Product support assistant. Analyze the following ticket description and provide structured data including a title, next action, priority, and tags.\n\nDescription: \"%s\""

var suggestionSchema = &llm.Schema{
	Type: llm.TypeObject,
	Properties: map[string]*llm.Schema{
		"title": {
			Type:        llm.TypeString,
			Description: "A concise, professional title for the ticket based on the description.",
		},
		"nextAction": {
			Type:        llm.TypeString,
			Description: "A recommended immediate next step or action to resolve the issue.",
		},
		"priority": {
			Type:        llm.TypeString,
			Enum:        priorityNames(),
			Description: "The estimated priority level based on urgency and impact.",
		},
		"tags": {
			Type:        llm.TypeArray,
			Items:       &llm.Schema{Type: llm.TypeString},
			Description: "A list of 2-3 short keywords/tags for categorization (e.g., 'UI', 'Backend', 'Bug').",
		},
	},
	Required: []string{"title", "nextAction", "priority", "tags"},
}

// SuggestionGateway turns a free-text description into ticket metadata.
type SuggestionGateway struct {
	provider    llm.Provider
	model       string
	temperature float64
	timeout     time.Duration
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// NewSuggestionGateway builds a gateway. A nil provider makes every call
// report no suggestion.
func NewSuggestionGateway(provider llm.Provider, cfg config.LLMConfig, logger *zap.Logger, metrics *observability.Metrics) *SuggestionGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuggestionGateway{
		provider:    provider,
		model:       cfg.Model,
		temperature: cfg.SuggestionTemperature,
		timeout:     cfg.Timeout(),
		logger:      logger,
		metrics:     metrics,
	}
}

// Analyze returns a validated suggestion, or false when none could be
// produced. Failures are logged, never returned.
func (g *SuggestionGateway) Analyze(ctx context.Context, description string) (*domain.TicketSuggestion, bool) {
	if strings.TrimSpace(description) == "" {
		g.metrics.RecordGatewayCall(gatewaySuggestion, observability.OutcomeRejected)
		return nil, false
	}
	suggestion, err := g.analyze(ctx, description)
	if err != nil {
		g.logger.Warn("ticket analysis failed", zap.Error(err))
		g.metrics.RecordGatewayCall(gatewaySuggestion, observability.OutcomeUnavailable)
		return nil, false
	}
	g.metrics.RecordGatewayCall(gatewaySuggestion, observability.OutcomeSuccess)
	return suggestion, true
}

func (g *SuggestionGateway) analyze(ctx context.Context, description string) (*domain.TicketSuggestion, error) {
	if g.provider == nil {
		return nil, errors.New("no llm provider configured")
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.provider.Complete(ctx, llm.Request{
		Model:            g.model,
		Prompt:           fmt.Sprintf(suggestionPrompt, description),
		Temperature:      llm.Float64(g.temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   suggestionSchema,
	})
	if err != nil {
		return nil, err
	}
	return parseSuggestion(resp.Text)
}

// suggestionWire uses pointers so missing keys can be told apart from empty ones.
type suggestionWire struct {
	Title      *string   `json:"title"`
	NextAction *string   `json:"nextAction"`
	Priority   *string   `json:"priority"`
	Tags       *[]string `json:"tags"`
}

func parseSuggestion(text string) (*domain.TicketSuggestion, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, llm.ErrEmptyResponse
	}
	var wire suggestionWire
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return nil, fmt.Errorf("malformed suggestion: %w", err)
	}

	switch {
	case wire.Title == nil || strings.TrimSpace(*wire.Title) == "":
		return nil, errors.New("suggestion missing title")
	case wire.NextAction == nil || strings.TrimSpace(*wire.NextAction) == "":
		return nil, errors.New("suggestion missing nextAction")
	case wire.Priority == nil:
		return nil, errors.New("suggestion missing priority")
	case wire.Tags == nil:
		return nil, errors.New("suggestion missing tags")
	}

	priority := domain.TicketPriority(strings.TrimSpace(*wire.Priority))
	if !priority.Valid() {
		return nil, fmt.Errorf("suggestion priority %q not allowed", *wire.Priority)
	}

	tags := make([]string, 0, len(*wire.Tags))
	for _, tag := range *wire.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	return &domain.TicketSuggestion{
		Title:      strings.TrimSpace(*wire.Title),
		NextAction: strings.TrimSpace(*wire.NextAction),
		Priority:   priority,
		Tags:       tags,
	}, nil
}

func priorityNames() []string {
	names := make([]string, 0, len(domain.TicketPriorities))
	for _, p := range domain.TicketPriorities {
		names = append(names, string(p))
	}
	return names
}
