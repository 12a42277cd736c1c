package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// OpenAIClient summarizes through any OpenAI-compatible chat endpoint
// (OpenAI, OpenRouter, a local Ollama) using langchaingo.
type OpenAIClient struct {
	llm     llms.Model
	model   string
	limiter *rate.Limiter

	Stats *LLMStats
}

// NewOpenAIClient creates a client. An empty baseURL uses the OpenAI API.
func NewOpenAIClient(apiKey, model, baseURL string, rps float64) (*OpenAIClient, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(strings.TrimRight(baseURL, "/")))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	c := &OpenAIClient{
		llm:   llm,
		model: model,
		Stats: NewLLMStats(time.Hour),
	}
	if rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c, nil
}

func (c *OpenAIClient) Summarize(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", classify(ctx, fmt.Errorf("rate limiter: %w", err))
		}
	}

	start := time.Now()
	text, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt,
		llms.WithTemperature(0.3),
		llms.WithMaxTokens(4096),
	)
	if err != nil {
		return "", classify(ctx, fmt.Errorf("openai chat: %w", err))
	}
	c.Stats.Record(time.Since(start).Milliseconds())

	text = strings.TrimSpace(text)
	if text == "" {
		return "", &CallError{Kind: KindEmpty, Err: fmt.Errorf("empty response from %s", c.model)}
	}
	return text, nil
}

func (c *OpenAIClient) Model() string { return c.model }

func (c *OpenAIClient) LatencyStats() *LLMStats { return c.Stats }

// Close is a no-op; langchaingo manages its own HTTP client.
func (c *OpenAIClient) Close() {}
