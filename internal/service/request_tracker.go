package service

import (
	"errors"
	"sync"
	"time"
)

// ErrRequestInFlight is returned by Start while a request of the same kind is pending.
var ErrRequestInFlight = errors.New("request already in flight")

// RequestState is the lifecycle of one gateway request kind.
type RequestState string

const (
	RequestIdle      RequestState = "idle"
	RequestPending   RequestState = "pending"
	RequestSucceeded RequestState = "succeeded"
	RequestFailed    RequestState = "failed"
)

// RequestSnapshot is a point-in-time copy of a tracker.
type RequestSnapshot[T any] struct {
	Kind       string       `json:"kind"`
	State      RequestState `json:"state"`
	Result     *T           `json:"result,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	StartedAt  *time.Time   `json:"startedAt,omitempty"`
	FinishedAt *time.Time   `json:"finishedAt,omitempty"`
}

// RequestTracker allows at most one outstanding request of its kind.
//
//	Idle|Succeeded|Failed -> Pending   (Start)
//	Pending -> Succeeded               (Succeed)
//	Pending -> Failed                  (Fail)
type RequestTracker[T any] struct {
	mu         sync.Mutex
	kind       string
	now        func() time.Time
	state      RequestState
	result     *T
	reason     string
	startedAt  time.Time
	finishedAt time.Time
}

// NewRequestTracker starts Idle.
func NewRequestTracker[T any](kind string, now func() time.Time) *RequestTracker[T] {
	if now == nil {
		now = time.Now
	}
	return &RequestTracker[T]{kind: kind, now: now, state: RequestIdle}
}

// Start moves to Pending, or fails with ErrRequestInFlight.
func (t *RequestTracker[T]) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == RequestPending {
		return ErrRequestInFlight
	}
	t.state = RequestPending
	t.result = nil
	t.reason = ""
	t.startedAt = t.now()
	t.finishedAt = time.Time{}
	return nil
}

// Succeed completes a pending request. It is ignored in any other state.
func (t *RequestTracker[T]) Succeed(result T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != RequestPending {
		return
	}
	t.state = RequestSucceeded
	t.result = &result
	t.finishedAt = t.now()
}

// Fail completes a pending request with a reason. It is ignored in any other state.
func (t *RequestTracker[T]) Fail(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != RequestPending {
		return
	}
	t.state = RequestFailed
	t.reason = reason
	t.finishedAt = t.now()
}

// Snapshot copies the current state.
func (t *RequestTracker[T]) Snapshot() RequestSnapshot[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := RequestSnapshot[T]{Kind: t.kind, State: t.state, Reason: t.reason}
	if t.result != nil {
		result := *t.result
		snap.Result = &result
	}
	if !t.startedAt.IsZero() {
		started := t.startedAt
		snap.StartedAt = &started
	}
	if !t.finishedAt.IsZero() {
		finished := t.finishedAt
		snap.FinishedAt = &finished
	}
	return snap
}
