// Package llm talks to remote text-generation services and builds the
// prompts the summarization pipeline sends them.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Summarizer produces text for a prompt. The call deadline comes from ctx and
// implementations should return promptly once it is done; callers stop
// waiting at the deadline either way. Implementations must be safe for
// concurrent use.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// Client is a Summarizer backed by a named model with latency tracking.
type Client interface {
	Summarizer
	Model() string
	LatencyStats() *LLMStats
	Close()
}

// FailureKind classifies a failed remote call.
type FailureKind string

const (
	KindTimeout FailureKind = "timeout"
	KindService FailureKind = "service_error"
	KindEmpty   FailureKind = "empty_or_short_response"
)

// CallError is returned for every failed remote call.
type CallError struct {
	Kind       FailureKind
	StatusCode int // HTTP status for KindService, when known
	Err        error
}

func (e *CallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Kind returns the failure kind of err, or "" if err is not a CallError.
func Kind(err error) FailureKind {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// classify wraps a transport-level error, mapping deadline expiry to
// KindTimeout and everything else to KindService.
func classify(ctx context.Context, err error) error {
	var ce *CallError
	if errors.As(err, &ce) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &CallError{Kind: KindTimeout, Err: err}
	}
	return &CallError{Kind: KindService, Err: err}
}
