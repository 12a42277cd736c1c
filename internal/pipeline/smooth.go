package pipeline

import (
	"context"
	"time"

	"github.com/dgallion1/docusum/internal/llm"
)

// GateSmoother runs the style-smoothing call through the shared gate. It
// makes a single attempt; the cleanup pipeline keeps the unsmoothed text on
// any error.
type GateSmoother struct {
	Client  llm.Summarizer
	Gate    *Gate
	Timeout time.Duration
}

func (s *GateSmoother) Smooth(ctx context.Context, text string) (string, error) {
	var out string
	err := s.Gate.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := withTimeout(ctx, s.Timeout)
		defer cancel()
		var err error
		out, err = summarize(callCtx, s.Client, llm.BuildSmoothingPrompt(text))
		return err
	})
	return out, err
}
