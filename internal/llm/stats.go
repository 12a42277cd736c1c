package llm

import (
	"slices"
	"sync"
	"time"
)

// ChapterOutcome is how one chapter's summarization ended: its terminal
// state, how many remote calls it made and why the failed ones failed.
type ChapterOutcome struct {
	State          string
	Attempts       int
	Timeouts       int
	ServiceErrors  int
	ShortResponses int
}

// Fail counts one failed attempt by kind.
func (o *ChapterOutcome) Fail(err error) {
	switch Kind(err) {
	case KindTimeout:
		o.Timeouts++
	case KindEmpty:
		o.ShortResponses++
	default:
		o.ServiceErrors++
	}
}

// LatencySnapshot aggregates remote call durations.
type LatencySnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// ChapterCounts aggregates chapter outcomes. Attempts and the failure
// counts are summed across chapters.
type ChapterCounts struct {
	Total          int `json:"total"`
	Succeeded      int `json:"succeeded"`
	FallbackUsed   int `json:"fallback_used"`
	Skipped        int `json:"skipped"`
	Retried        int `json:"retried"`
	Attempts       int `json:"attempts"`
	Timeouts       int `json:"timeouts"`
	ServiceErrors  int `json:"service_errors"`
	ShortResponses int `json:"short_responses"`
}

// StatsSnapshot is a point-in-time view of the rolling window.
type StatsSnapshot struct {
	Latency  LatencySnapshot `json:"latency"`
	Chapters ChapterCounts   `json:"chapters"`
}

type callSample struct {
	at         time.Time
	durationMs int64
}

type chapterSample struct {
	at      time.Time
	outcome ChapterOutcome
}

// LLMStats keeps remote call latencies and chapter outcomes seen within a
// rolling window.
type LLMStats struct {
	mu       sync.Mutex
	calls    []callSample
	chapters []chapterSample
	window   time.Duration
	now      func() time.Time
}

func NewLLMStats(window time.Duration) *LLMStats {
	if window <= 0 {
		window = time.Hour
	}
	return &LLMStats{window: window, now: time.Now}
}

// Record adds the duration of one remote call.
func (s *LLMStats) Record(durationMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.pruneLocked(now)
	s.calls = append(s.calls, callSample{at: now, durationMs: max(durationMs, 0)})
}

// RecordChapter adds the outcome of one chapter.
func (s *LLMStats) RecordChapter(o ChapterOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.pruneLocked(now)
	s.chapters = append(s.chapters, chapterSample{at: now, outcome: o})
}

func (s *LLMStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.now())

	var snap StatsSnapshot
	for _, c := range s.chapters {
		o := c.outcome
		cc := &snap.Chapters
		cc.Total++
		switch o.State {
		case "succeeded":
			cc.Succeeded++
		case "fallback_used":
			cc.FallbackUsed++
		case "skipped":
			cc.Skipped++
		}
		if o.Attempts > 1 {
			cc.Retried++
		}
		cc.Attempts += o.Attempts
		cc.Timeouts += o.Timeouts
		cc.ServiceErrors += o.ServiceErrors
		cc.ShortResponses += o.ShortResponses
	}

	if len(s.calls) == 0 {
		return snap
	}
	values := make([]int64, len(s.calls))
	var sum int64
	for i, c := range s.calls {
		values[i] = c.durationMs
		sum += c.durationMs
	}
	slices.Sort(values)
	snap.Latency = LatencySnapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
	return snap
}

func (s *LLMStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.calls = slices.DeleteFunc(s.calls, func(c callSample) bool { return c.at.Before(cutoff) })
	s.chapters = slices.DeleteFunc(s.chapters, func(c chapterSample) bool { return c.at.Before(cutoff) })
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := float64(len(sorted)-1) * pct / 100
	lo := int(idx)
	if lo >= len(sorted)-1 {
		return float64(sorted[len(sorted)-1])
	}
	w := idx - float64(lo)
	return float64(sorted[lo]) + w*float64(sorted[lo+1]-sorted[lo])
}
