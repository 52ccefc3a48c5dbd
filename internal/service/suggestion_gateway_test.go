package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-genius/internal/config"
	"github.com/spec-kit/ticket-genius/internal/domain"
	"github.com/spec-kit/ticket-genius/internal/llm"
	"github.com/spec-kit/ticket-genius/internal/observability"
)

var testLLMConfig = config.LLMConfig{
	Model:                 "gemini-2.5-flash",
	SuggestionTemperature: 0.3,
	TimeoutSeconds:        5,
}

func TestSuggestionGatewayValidResponse(t *testing.T) {
	provider := &fakeProvider{text: `{"title":" Login timeout on 3G ","nextAction":"Raise LB idle timeout","priority":"High","tags":["Auth"," Performance ",""]}`}
	gateway := NewSuggestionGateway(provider, testLLMConfig, nil, nil)

	suggestion, ok := gateway.Analyze(context.Background(), "login hangs on slow networks")
	require.True(t, ok)
	assert.Equal(t, &domain.TicketSuggestion{
		Title:      "Login timeout on 3G",
		NextAction: "Raise LB idle timeout",
		Priority:   domain.TicketPriorityHigh,
		Tags:       []string{"Auth", "Performance"},
	}, suggestion)

	calls := provider.calls()
	require.Len(t, calls, 1)
	req := calls[0]
	assert.Equal(t, "gemini-2.5-flash", req.Model)
	assert.True(t, strings.HasSuffix(req.Prompt, "Description: \"login hangs on slow networks\""))
	assert.True(t, strings.HasPrefix(req.Prompt, "You are a helpful IT and Product support assistant."))
	assert.Equal(t, "application/json", req.ResponseMIMEType)
	require.NotNil(t, req.Temperature)
	assert.InDelta(t, 0.3, *req.Temperature, 1e-9)
	require.NotNil(t, req.ResponseSchema)
	assert.ElementsMatch(t, []string{"title", "nextAction", "priority", "tags"}, req.ResponseSchema.Required)
	assert.Equal(t, []string{"Low", "Medium", "High", "Critical"}, req.ResponseSchema.Properties["priority"].Enum)
}

func TestSuggestionGatewayRejectsBadResponses(t *testing.T) {
	cases := map[string]string{
		"malformed json":    `{"title": "x"`,
		"empty text":        "   ",
		"missing title":     `{"nextAction":"a","priority":"Low","tags":[]}`,
		"blank next action": `{"title":"t","nextAction":"  ","priority":"Low","tags":[]}`,
		"missing priority":  `{"title":"t","nextAction":"a","tags":[]}`,
		"unknown priority":  `{"title":"t","nextAction":"a","priority":"Urgent","tags":[]}`,
		"missing tags":      `{"title":"t","nextAction":"a","priority":"Low"}`,
		"tags not strings":  `{"title":"t","nextAction":"a","priority":"Low","tags":[1,2]}`,
		"not an object":     `["t"]`,
	}
	for name, text := range cases {
		text := text
		t.Run(name, func(t *testing.T) {
			gateway := NewSuggestionGateway(&fakeProvider{text: text}, testLLMConfig, nil, nil)
			suggestion, ok := gateway.Analyze(context.Background(), "something broke")
			assert.False(t, ok)
			assert.Nil(t, suggestion)
		})
	}
}

func TestSuggestionGatewayTransportError(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	provider := &fakeProvider{err: &llm.ProviderError{StatusCode: 503, Message: "unavailable"}}
	gateway := NewSuggestionGateway(provider, testLLMConfig, nil, metrics)

	suggestion, ok := gateway.Analyze(context.Background(), "something broke")
	assert.False(t, ok)
	assert.Nil(t, suggestion)

	expected := `
# HELP llm_gateway_calls_total Suggestion and summary gateway calls by outcome.
# TYPE llm_gateway_calls_total counter
llm_gateway_calls_total{gateway="suggestion",outcome="unavailable"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "llm_gateway_calls_total"))
}

func TestSuggestionGatewaySkipsBlankDescription(t *testing.T) {
	provider := &fakeProvider{text: `{}`}
	gateway := NewSuggestionGateway(provider, testLLMConfig, nil, nil)

	_, ok := gateway.Analyze(context.Background(), " \n\t")
	assert.False(t, ok)
	assert.Empty(t, provider.calls())
}

func TestSuggestionGatewayWithoutProvider(t *testing.T) {
	gateway := NewSuggestionGateway(nil, testLLMConfig, nil, nil)
	_, ok := gateway.Analyze(context.Background(), "anything")
	assert.False(t, ok)
}

type slowProvider struct{}

func (slowProvider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSuggestionGatewayAppliesTimeout(t *testing.T) {
	gateway := NewSuggestionGateway(slowProvider{}, testLLMConfig, nil, nil)
	gateway.timeout = 20 * time.Millisecond

	done := make(chan bool, 1)
	go func() {
		_, ok := gateway.Analyze(context.Background(), "slow")
		done <- ok
	}()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("analysis did not time out")
	}
}

func TestParseSuggestionWrapsEmpty(t *testing.T) {
	_, err := parseSuggestion("")
	assert.True(t, errors.Is(err, llm.ErrEmptyResponse))
}
