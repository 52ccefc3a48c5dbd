package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiTestServer(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGemini(server.Client(), server.URL+"/", "test-key")
}

func TestGeminiComplete(t *testing.T) {
	t.Parallel()

	provider := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var wire struct {
			Contents []struct {
				Role  string `json:"role"`
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
			GenerationConfig struct {
				Temperature      *float64        `json:"temperature"`
				ResponseMIMEType string          `json:"responseMimeType"`
				ResponseSchema   json.RawMessage `json:"responseSchema"`
			} `json:"generationConfig"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&wire)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if assert.Len(t, wire.Contents, 1) && assert.Len(t, wire.Contents[0].Parts, 1) {
			assert.Equal(t, "user", wire.Contents[0].Role)
			assert.Equal(t, "Describe the backlog", wire.Contents[0].Parts[0].Text)
		}
		if assert.NotNil(t, wire.GenerationConfig.Temperature) {
			assert.InDelta(t, 0.3, *wire.GenerationConfig.Temperature, 1e-9)
		}
		assert.Equal(t, "application/json", wire.GenerationConfig.ResponseMIMEType)
		assert.JSONEq(t, `{"type":"OBJECT","properties":{"title":{"type":"STRING"}},"required":["title"]}`,
			string(wire.GenerationConfig.ResponseSchema))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "{\"title\":"}, {"text": "\"Hi\"}"}]},
				"finishReason": "STOP"
			}],
			"modelVersion": "gemini-2.5-flash-001"
		}`)
	})

	resp, err := provider.Complete(context.Background(), Request{
		Model:            "gemini-2.5-flash",
		Prompt:           "Describe the backlog",
		Temperature:      Float64(0.3),
		ResponseMIMEType: "application/json",
		ResponseSchema: &Schema{
			Type:       TypeObject,
			Properties: map[string]*Schema{"title": {Type: TypeString}},
			Required:   []string{"title"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Hi"}`, resp.Text)
	assert.Equal(t, "gemini-2.5-flash-001", resp.Model)
	assert.Equal(t, "STOP", resp.FinishReason)
}

func TestGeminiOmitsGenerationConfigWhenUnset(t *testing.T) {
	t.Parallel()

	provider := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var wire map[string]json.RawMessage
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&wire))
		_, has := wire["generationConfig"]
		assert.False(t, has)
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	})

	resp, err := provider.Complete(context.Background(), Request{Model: "m", Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, "m", resp.Model)
}

func TestGeminiProviderError(t *testing.T) {
	t.Parallel()

	provider := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"code":429,"status":"RESOURCE_EXHAUSTED","message":"quota exceeded"}}`)
	})

	_, err := provider.Complete(context.Background(), Request{Model: "m", Prompt: "p"})
	var providerErr *ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, http.StatusTooManyRequests, providerErr.StatusCode)
	assert.Equal(t, "RESOURCE_EXHAUSTED", providerErr.Status)
	assert.Equal(t, "quota exceeded", providerErr.Message)
	assert.True(t, providerErr.IsRateLimited())
}

func TestGeminiProviderErrorRawBody(t *testing.T) {
	t.Parallel()

	provider := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "upstream down")
	})

	_, err := provider.Complete(context.Background(), Request{Model: "m", Prompt: "p"})
	var providerErr *ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, "upstream down", providerErr.Message)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestGeminiNoCandidates(t *testing.T) {
	t.Parallel()

	provider := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[]}`)
	})

	_, err := provider.Complete(context.Background(), Request{Model: "m", Prompt: "p"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGeminiBlockedPrompt(t *testing.T) {
	t.Parallel()

	provider := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"promptFeedback":{"blockReason":"SAFETY"}}`)
	})

	_, err := provider.Complete(context.Background(), Request{Model: "m", Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestGeminiMalformedBody(t *testing.T) {
	t.Parallel()

	provider := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":`)
	})

	_, err := provider.Complete(context.Background(), Request{Model: "m", Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestGeminiHonoursContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	provider := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := provider.Complete(ctx, Request{Model: "m", Prompt: "p"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGeminiRequiresModel(t *testing.T) {
	t.Parallel()

	_, err := NewGemini(nil, "http://unused", "").Complete(context.Background(), Request{Prompt: "p"})
	assert.Error(t, err)
}
