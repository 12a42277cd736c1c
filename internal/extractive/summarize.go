// Package extractive selects representative sentences without a model. It
// backs both prompt compression and the fallback summary.
package extractive

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docusum/internal/textclean"
)

// leadBonus boosts sentences near the start of a chapter, which usually
// state its context.
const leadBonus = 1.15

// Summarizer scores sentences with a TF-IDF style weight.
type Summarizer struct {
	isStop func(string) bool
}

// New returns a Summarizer that filters tokens with rs's stop-words.
func New(rs *textclean.Ruleset) *Summarizer {
	return &Summarizer{isStop: rs.IsStopWord}
}

var defaultSummarizer = New(textclean.Default())

// Summarize picks at most maxSent sentences with the default stop-words.
func Summarize(text string, maxSent int) string {
	return defaultSummarizer.Summarize(text, maxSent)
}

// Summarize returns at most maxSent sentences of text, chosen by score and
// re-emitted in their original order joined by single spaces. Every returned
// sentence is a sentence of the input.
func (s *Summarizer) Summarize(text string, maxSent int) string {
	sents := SplitSentences(text)
	if len(sents) == 0 || maxSent <= 0 {
		return ""
	}
	if len(sents) <= maxSent {
		return strings.Join(sents, " ")
	}

	tokens := make([][]string, len(sents))
	df := make(map[string]int)
	for i, sent := range sents {
		tokens[i] = s.Tokenize(sent)
		seen := make(map[string]bool, len(tokens[i]))
		for _, tok := range tokens[i] {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	n := len(sents)
	leadCount := max(3, int(float64(n)*0.1))
	scores := make([]float64, n)
	for i, toks := range tokens {
		tf := make(map[string]int, len(toks))
		for _, tok := range toks {
			tf[tok]++
		}
		var score float64
		for tok, cnt := range tf {
			idf := math.Log(float64(n+1)/float64(1+df[tok])) + 1
			score += float64(cnt) / float64(1+len(toks)) * idf
		}
		if i < leadCount {
			score *= leadBonus
		}
		scores[i] = score
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
	top := order[:maxSent]
	sort.Ints(top)

	picked := make([]string, len(top))
	for i, idx := range top {
		picked[i] = sents[idx]
	}
	return strings.Join(picked, " ")
}

// Tokenize lowercases a sentence, strips ASCII punctuation and drops
// stop-words and tokens of two runes or fewer.
func (s *Summarizer) Tokenize(sentence string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if r < utf8.RuneSelf && (unicode.IsPunct(r) || unicode.IsSymbol(r)) {
			return -1
		}
		return unicode.ToLower(r)
	}, sentence)

	fields := strings.Fields(cleaned)
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) <= 2 || s.isStop(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// SplitSentences splits after '.', '?' or '!' when the punctuation is
// followed by whitespace and then an ASCII letter or digit. Decimals such as
// "3.14" stay intact because no whitespace follows the dot.
func SplitSentences(text string) []string {
	var sents []string
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '.' && c != '?' && c != '!' {
			continue
		}
		j := i + 1
		for j < len(text) && isSpace(text[j]) {
			j++
		}
		if j == i+1 || j >= len(text) || !isAlnum(text[j]) {
			continue
		}
		if sent := strings.TrimSpace(text[start : i+1]); sent != "" {
			sents = append(sents, sent)
		}
		start = j
		i = j - 1
	}
	if sent := strings.TrimSpace(text[start:]); sent != "" {
		sents = append(sents, sent)
	}
	return sents
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
