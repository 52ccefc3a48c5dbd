package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-genius/internal/domain"
	"github.com/spec-kit/ticket-genius/internal/llm"
	apperrors "github.com/spec-kit/ticket-genius/pkg/util"
)

var baseTime = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

// fixedClock returns a clock that reads *current on each call.
func fixedClock(current *time.Time) func() time.Time {
	return func() time.Time { return *current }
}

// fakeProvider answers every Complete call with the configured text or error.
type fakeProvider struct {
	mu       sync.Mutex
	text     string
	err      error
	requests []llm.Request
}

func (p *fakeProvider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	return &llm.Response{Text: p.text, Model: req.Model}, nil
}

func (p *fakeProvider) calls() []llm.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.Request(nil), p.requests...)
}

// stubSuggester returns a fixed answer, optionally waiting on release first.
type stubSuggester struct {
	suggestion *domain.TicketSuggestion
	entered    chan struct{}
	release    chan struct{}
}

func (s *stubSuggester) Analyze(ctx context.Context, description string) (*domain.TicketSuggestion, bool) {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	if s.suggestion == nil {
		return nil, false
	}
	copied := *s.suggestion
	return &copied, true
}

type stubSummarizer struct {
	text    string
	ok      bool
	digests []string
}

func (s *stubSummarizer) Summarize(ctx context.Context, digest string) (string, bool) {
	s.digests = append(s.digests, digest)
	return s.text, s.ok
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %v", err)
	require.Equal(t, code, domainErr.Code)
}
