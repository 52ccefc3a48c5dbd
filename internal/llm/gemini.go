package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Gemini implements [Provider] for the Gemini generateContent REST API.
type Gemini struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewGemini creates a provider. baseURL is the API root, for example
// https://generativelanguage.googleapis.com.
func NewGemini(httpClient *http.Client, baseURL, apiKey string) *Gemini {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Gemini{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// Complete sends a non-streaming generateContent request.
func (g *Gemini) Complete(ctx context.Context, request Request) (*Response, error) {
	if request.Model == "" {
		return nil, fmt.Errorf("llm/gemini: model required")
	}
	headers := http.Header{}
	if g.apiKey != "" {
		headers.Set("x-goog-api-key", g.apiKey)
	}

	httpResponse, err := doProviderRequest(ctx, g.httpClient, g.endpoint(request.Model), headers, g.buildRequest(request))
	if err != nil {
		return nil, err
	}
	defer httpResponse.Body.Close()

	var wire geminiResponse
	if err := json.NewDecoder(httpResponse.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("llm/gemini: decoding response: %w", err)
	}
	return wire.toResponse(request.Model)
}

func (g *Gemini) endpoint(model string) string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, url.PathEscape(model))
}

func (g *Gemini) buildRequest(request Request) geminiRequest {
	wire := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: request.Prompt}},
		}},
	}
	if request.Temperature != nil || request.ResponseMIMEType != "" || request.ResponseSchema != nil {
		wire.GenerationConfig = &geminiGenerationConfig{
			Temperature:      request.Temperature,
			ResponseMIMEType: request.ResponseMIMEType,
			ResponseSchema:   request.ResponseSchema,
		}
	}
	return wire
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	ResponseMIMEType string   `json:"responseMimeType,omitempty"`
	ResponseSchema   *Schema  `json:"responseSchema,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	ModelVersion   string `json:"modelVersion"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// toResponse joins the text parts of the first candidate.
func (w *geminiResponse) toResponse(model string) (*Response, error) {
	if w.PromptFeedback != nil && w.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("llm/gemini: prompt blocked: %s", w.PromptFeedback.BlockReason)
	}
	if len(w.Candidates) == 0 {
		return nil, ErrEmptyResponse
	}
	candidate := w.Candidates[0]
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}
	if w.ModelVersion != "" {
		model = w.ModelVersion
	}
	return &Response{
		Text:         text.String(),
		Model:        model,
		FinishReason: candidate.FinishReason,
	}, nil
}
