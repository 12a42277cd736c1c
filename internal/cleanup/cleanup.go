// Package cleanup post-processes model summaries: markup and boilerplate are
// removed, spacing is normalized, fragments are merged and an optional
// smoothing rewrite is applied.
package cleanup

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docusum/internal/llm"
	"github.com/dgallion1/docusum/internal/textclean"
)

// DefaultMinSentenceChars is the fragment threshold used when none is set.
const DefaultMinSentenceChars = 40

// Smoother rewrites a finished summary for readability.
type Smoother interface {
	Smooth(ctx context.Context, text string) (string, error)
}

// Pipeline is the ordered set of output transforms for one summary.
type Pipeline struct {
	rules       *textclean.Ruleset
	minSentence int
	smoother    Smoother
	minSmoothed int
	log         *slog.Logger
}

// New returns a pipeline without smoothing. A nil rules uses the defaults.
func New(rules *textclean.Ruleset, minSentenceChars int, log *slog.Logger) *Pipeline {
	if rules == nil {
		rules = textclean.Default()
	}
	if minSentenceChars <= 0 {
		minSentenceChars = DefaultMinSentenceChars
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{rules: rules, minSentence: minSentenceChars, log: log}
}

// WithSmoother enables the smoothing pass. Rewrites shorter than minChars
// runes are discarded.
func (p *Pipeline) WithSmoother(s Smoother, minChars int) *Pipeline {
	cp := *p
	cp.smoother = s
	cp.minSmoothed = minChars
	return &cp
}

// Smoothing reports whether the smoothing pass is enabled.
func (p *Pipeline) Smoothing() bool { return p.smoother != nil }

// Run cleans raw and, when a Smoother is set, smooths the result. A failed or
// unacceptable rewrite is dropped and the cleaned text returned. The rewrite
// is trusted as is: nothing checks that it keeps the facts of the input.
func (p *Pipeline) Run(ctx context.Context, raw string) string {
	text := p.Clean(raw)
	if p.smoother == nil || text == "" {
		return text
	}

	out, err := p.smoother.Smooth(ctx, text)
	if err != nil {
		p.log.Warn("smoothing failed, keeping summary", "error", err)
		return text
	}
	out, err = llm.AcceptSummary(out, p.minSmoothed)
	if err != nil {
		p.log.Warn("smoothing rejected, keeping summary", "error", err)
		return text
	}
	if smoothed := p.Clean(out); smoothed != "" {
		return smoothed
	}
	return text
}

// Clean applies the deterministic transforms: markup stripping, boilerplate
// headings, dot leaders, page numbers, bracketed citations, spacing, banned
// phrases and fragment merging.
func (p *Pipeline) Clean(raw string) string {
	text := StripMarkup(raw)
	text = p.rules.Apply(textclean.StageOutput, text)
	return MergeFragments(text, p.minSentence)
}

// MergeFragments joins every line or paragraph shorter than minChars runes
// to the one that follows it. A trailing fragment joins the one before it.
func MergeFragments(text string, minChars int) string {
	var paras []string
	for _, para := range strings.Split(text, "\n\n") {
		if para = strings.TrimSpace(para); para == "" {
			continue
		}
		lines := strings.Split(para, "\n")
		paras = append(paras, strings.Join(mergeShort(lines, minChars, " "), "\n"))
	}
	return strings.Join(mergeShort(paras, minChars, " "), "\n\n")
}

func mergeShort(units []string, minChars int, sep string) []string {
	var out []string
	pending := ""
	for _, u := range units {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if pending != "" {
			u = pending + sep + u
			pending = ""
		}
		if utf8.RuneCountInString(u) < minChars {
			pending = u
			continue
		}
		out = append(out, u)
	}
	if pending != "" {
		if len(out) > 0 {
			out[len(out)-1] += sep + pending
		} else {
			out = append(out, pending)
		}
	}
	return out
}
