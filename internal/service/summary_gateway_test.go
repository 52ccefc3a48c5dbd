package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-genius/internal/domain"
	"github.com/spec-kit/ticket-genius/internal/observability"
)

func TestSummaryGatewaySuccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	provider := &fakeProvider{text: "Two open tickets; prioritise the login timeout."}
	gateway := NewSummaryGateway(provider, testLLMConfig, nil, observability.NewMetrics(reg))

	text, ok := gateway.Summarize(context.Background(), "[Assigned] Login Page Timeout: spins")
	assert.True(t, ok)
	assert.Equal(t, "Two open tickets; prioritise the login timeout.", text)

	calls := provider.calls()
	require.Len(t, calls, 1)
	assert.Equal(t,
		"Summarize the current status of these tickets and suggest general improvements for the team:\n[Assigned] Login Page Timeout: spins",
		calls[0].Prompt)
	assert.Nil(t, calls[0].ResponseSchema)

	expected := `
# HELP llm_gateway_calls_total Suggestion and summary gateway calls by outcome.
# TYPE llm_gateway_calls_total counter
llm_gateway_calls_total{gateway="summary",outcome="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "llm_gateway_calls_total"))
}

func TestSummaryGatewayFallbacks(t *testing.T) {
	empty := NewSummaryGateway(&fakeProvider{text: "  "}, testLLMConfig, nil, nil)
	text, ok := empty.Summarize(context.Background(), "")
	assert.False(t, ok)
	assert.Equal(t, SummaryEmptyFallback, text)

	failing := NewSummaryGateway(&fakeProvider{err: errors.New("dial tcp: refused")}, testLLMConfig, nil, nil)
	text, ok = failing.Summarize(context.Background(), "")
	assert.False(t, ok)
	assert.Equal(t, SummaryErrorFallback, text)

	unconfigured := NewSummaryGateway(nil, testLLMConfig, nil, nil)
	text, ok = unconfigured.Summarize(context.Background(), "")
	assert.False(t, ok)
	assert.Equal(t, SummaryErrorFallback, text)
}

func TestBuildDigest(t *testing.T) {
	tickets := []domain.Ticket{
		{Title: "Login Page Timeout", Description: "spins", Status: domain.TicketStatusAssigned},
		{Title: "Dark Mode", Description: "wanted", Status: domain.TicketStatusUnassigned},
	}
	assert.Equal(t, "[Assigned] Login Page Timeout: spins\n[Unassigned] Dark Mode: wanted", BuildDigest(tickets))
	assert.Equal(t, "", BuildDigest(nil))
}
