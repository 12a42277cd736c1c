package pipeline

import (
	"context"
	"time"

	"github.com/dgallion1/docusum/internal/llm"
)

// Backoff returns the delay after failed attempt n (1-indexed):
// base * 2^(n-1), capped at maxDelay. Delays never decrease with n.
func Backoff(attempt int, base, maxDelay time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxDelay {
			return maxDelay
		}
	}
	if d > maxDelay {
		return maxDelay
	}
	return d
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// withTimeout is context.WithTimeout that treats d <= 0 as no deadline.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

type callResult struct {
	text  string
	err   error
	panic any
}

// summarize runs client.Summarize and returns when it does or when ctx is
// done, whichever comes first. A client that ignores ctx is left running on
// its own goroutine. A panic in the client is re-raised on the caller.
func summarize(ctx context.Context, client llm.Summarizer, prompt string) (string, error) {
	done := make(chan callResult, 1)
	go func() {
		var res callResult
		defer func() {
			if rec := recover(); rec != nil {
				res.panic = rec
			}
			done <- res
		}()
		res.text, res.err = client.Summarize(ctx, prompt)
	}()
	select {
	case res := <-done:
		if res.panic != nil {
			panic(res.panic)
		}
		return res.text, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
