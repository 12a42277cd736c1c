package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docusum/internal/cleanup"
	"github.com/dgallion1/docusum/internal/config"
	"github.com/dgallion1/docusum/internal/doctree"
	"github.com/dgallion1/docusum/internal/extractive"
	"github.com/dgallion1/docusum/internal/llm"
	"github.com/dgallion1/docusum/internal/textclean"
)

// RunnerConfig holds the per-chapter summarization limits.
type RunnerConfig struct {
	MaxAttempts       int           // total remote calls per chapter
	BaseDelay         time.Duration // first retry delay
	MaxDelay          time.Duration // retry delay cap
	CallTimeout       time.Duration // per remote call, counted from slot acquisition
	MaxInputChars     int           // compression budget
	MinSummaryChars   int           // shortest accepted summary, in runes
	MinParagraphChars int           // qualifying paragraph length
	FallbackSentences int
}

// DefaultRunnerConfig returns the production defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		MaxAttempts:       4,
		BaseDelay:         800 * time.Millisecond,
		MaxDelay:          8 * time.Second,
		CallTimeout:       60 * time.Second,
		MaxInputChars:     30000,
		MinSummaryChars:   120,
		MinParagraphChars: 40,
		FallbackSentences: 7,
	}
}

// RunnerConfigFrom maps service configuration onto runner limits.
func RunnerConfigFrom(cfg config.Config) RunnerConfig {
	rc := DefaultRunnerConfig()
	rc.MaxAttempts = cfg.MaxAttempts
	rc.BaseDelay = cfg.RetryBaseDelay
	rc.MaxDelay = cfg.RetryMaxDelay
	rc.CallTimeout = cfg.CallTimeout
	rc.MaxInputChars = cfg.MaxInputChars
	rc.MinSummaryChars = cfg.MinSummaryChars
	rc.FallbackSentences = cfg.FallbackSentences
	return rc
}

// ChapterRunner summarizes chapters through a remote Summarizer, falling back
// to an extractive summary when every attempt fails.
type ChapterRunner struct {
	client     llm.Summarizer
	gate       *Gate
	cleanup    *cleanup.Pipeline
	rules      *textclean.Ruleset
	extractive *extractive.Summarizer
	cfg        RunnerConfig
	log        *slog.Logger
	stats      *llm.LLMStats // chapter outcomes; nil disables recording

	// sleep waits between attempts; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewChapterRunner(client llm.Summarizer, gate *Gate, clean *cleanup.Pipeline, rules *textclean.Ruleset, cfg RunnerConfig, log *slog.Logger) *ChapterRunner {
	if rules == nil {
		rules = textclean.Default()
	}
	if clean == nil {
		clean = cleanup.New(rules, 0, log)
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &ChapterRunner{
		client:     client,
		gate:       gate,
		cleanup:    clean,
		rules:      rules,
		extractive: extractive.New(rules),
		cfg:        cfg,
		log:        log,
		sleep:      sleepCtx,
	}
}

// QualifyingParagraphs returns the non-blank lines of body longer than
// minChars runes.
func QualifyingParagraphs(body string, minChars int) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) > minChars {
			out = append(out, line)
		}
	}
	return out
}

// SummarizeChapter drives ch to a terminal state. It never fails: exhausted
// retries, a cancelled ctx or a panic all end in the extractive fallback.
func (r *ChapterRunner) SummarizeChapter(ctx context.Context, ch *doctree.Chapter) {
	log := r.log.With("chapter", ch.Index, "title", ch.Title)

	var outcome llm.ChapterOutcome
	defer func() {
		if r.stats != nil {
			outcome.State = string(ch.State())
			r.stats.RecordChapter(outcome)
		}
	}()

	paras := QualifyingParagraphs(ch.RawBody, r.cfg.MinParagraphChars)
	if len(paras) < 2 {
		ch.Finish(doctree.StateSkipped, "")
		log.Info("chapter skipped", "paragraphs", len(paras))
		return
	}

	cleaned := r.rules.StripReferences(strings.Join(paras, "\n"))
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("chapter task panicked, using fallback", "panic", rec)
			r.fallback(ch, cleaned)
		}
	}()

	ch.SetState(doctree.StateCompressing, 0)
	compressed := r.extractive.Compress(cleaned, r.cfg.MaxInputChars)
	ch.SetBodies(cleaned, compressed)

	paragraphs := llm.TargetParagraphs(ch.Title, utf8.RuneCountInString(compressed))
	prompt := llm.BuildChapterPrompt(ch.Title, compressed, paragraphs)
	log.Debug("chapter prompt built",
		"cleaned_chars", len(cleaned),
		"compressed_chars", len(compressed),
		"paragraphs", paragraphs,
		"est_tokens", extractive.EstimateTokens(prompt),
	)

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		ch.SetState(doctree.StateCalling, attempt)
		outcome.Attempts = attempt
		text, err := r.call(ctx, prompt)
		if err == nil {
			if summary := r.cleanup.Run(ctx, text); summary != "" {
				ch.Finish(doctree.StateSucceeded, summary)
				log.Info("chapter summarized", "attempts", attempt, "chars", len(summary))
				return
			}
			err = &llm.CallError{Kind: llm.KindEmpty, Err: errors.New("summary empty after cleanup")}
		}
		if ctx.Err() != nil {
			log.Warn("chapter cancelled, using fallback", "attempt", attempt, "error", err)
			break
		}
		outcome.Fail(err)
		if attempt == r.cfg.MaxAttempts {
			log.Warn("remote summary failed, attempts exhausted", "attempt", attempt, "kind", llm.Kind(err), "error", err)
			break
		}

		delay := Backoff(attempt, r.cfg.BaseDelay, r.cfg.MaxDelay)
		log.Warn("remote summary failed, retrying", "attempt", attempt, "kind", llm.Kind(err), "delay", delay, "error", err)
		ch.SetState(doctree.StateRetrying, attempt)
		if err := r.sleep(ctx, delay); err != nil {
			log.Warn("chapter cancelled during backoff, using fallback", "attempt", attempt)
			break
		}
	}
	r.fallback(ch, cleaned)
}

// call makes one gated remote call. The timeout starts once a slot is held
// and the slot is released before the result is inspected, or at the
// deadline if the client does not return by then.
func (r *ChapterRunner) call(ctx context.Context, prompt string) (string, error) {
	var text string
	err := r.gate.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := withTimeout(ctx, r.cfg.CallTimeout)
		defer cancel()
		var err error
		text, err = summarize(callCtx, r.client, prompt)
		if err != nil && llm.Kind(err) == "" && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = &llm.CallError{Kind: llm.KindTimeout, Err: err}
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return llm.AcceptSummary(text, r.cfg.MinSummaryChars)
}

func (r *ChapterRunner) fallback(ch *doctree.Chapter, cleaned string) {
	summary := r.extractive.Summarize(cleaned, r.cfg.FallbackSentences)
	if summary == "" {
		summary = extractive.TruncateAtSentence(strings.TrimSpace(cleaned), r.cfg.MaxInputChars)
	}
	ch.Finish(doctree.StateFallbackUsed, summary)
}

// SummarizeAll runs one task per chapter and returns when every chapter is
// terminal. Chapters do not cancel each other. done, if set, is called as each
// chapter finishes.
func (r *ChapterRunner) SummarizeAll(ctx context.Context, chapters []*doctree.Chapter, done func(*doctree.Chapter)) {
	var g errgroup.Group
	for _, ch := range chapters {
		g.Go(func() error {
			r.SummarizeChapter(ctx, ch)
			if done != nil {
				done(ch)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Stats reports gate usage.
func (r *ChapterRunner) Stats() GateStats { return r.gate.Stats() }
