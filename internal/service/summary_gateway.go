package service

import (
	"context"
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

const gatewaySummary = "summary"

// Placeholder texts shown instead of a summary.
const (
	SummaryEmptyFallback = "Unable to generate summary."
	SummaryErrorFallback = "Error generating summary."
)

const summaryPrompt = "Summarize the current status of these tickets and suggest general improvements for the team:\n"

// SummaryGateway produces a short status report from a ticket digest.
// It holds no per-call state.
type SummaryGateway struct {
	provider llm.Provider
	model    string
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewSummaryGateway builds a gateway. A nil provider always yields the error fallback.
func NewSummaryGateway(provider llm.Provider, cfg config.LLMConfig, logger *zap.Logger, metrics *observability.Metrics) *SummaryGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryGateway{
		provider: provider,
		model:    cfg.Model,
		timeout:  cfg.Timeout(),
		logger:   logger,
		metrics:  metrics,
	}
}

// Summarize always returns displayable text. ok is false when the text is
// one of the fallback placeholders.
func (g *SummaryGateway) Summarize(ctx context.Context, digest string) (string, bool) {
	text, err := g.summarize(ctx, digest)
	switch {
	case errors.Is(err, llm.ErrEmptyResponse):
		g.logger.Warn("summary came back empty")
		g.metrics.RecordGatewayCall(gatewaySummary, observability.OutcomeUnavailable)
		return SummaryEmptyFallback, false
	case err != nil:
		g.logger.Warn("summary generation failed", zap.Error(err))
		g.metrics.RecordGatewayCall(gatewaySummary, observability.OutcomeUnavailable)
		return SummaryErrorFallback, false
	}
	g.metrics.RecordGatewayCall(gatewaySummary, observability.OutcomeSuccess)
	return text, true
}

func (g *SummaryGateway) summarize(ctx context.Context, digest string) (string, error) {
	if g.provider == nil {
		return "", errors.New("no llm provider configured")
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	resp, err := g.provider.Complete(ctx, llm.Request{
		Model:  g.model,
		Prompt: summaryPrompt + digest,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", llm.ErrEmptyResponse
	}
	return resp.Text, nil
}

// BuildDigest renders one "[status] title: description" line per ticket.
func BuildDigest(tickets []domain.Ticket) string {
	lines := make([]string, 0, len(tickets))
	for _, t := range tickets {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", t.Status, t.Title, t.Description))
	}
	return strings.Join(lines, "\n")
}
