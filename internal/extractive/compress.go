package extractive

import (
	"strings"
	"unicode/utf8"
)

// Compress shrinks text to at most budget runes. Text within budget is only
// whitespace-collapsed. Longer text with more than 12 sentences is first
// reduced to its highest-scoring sentences (16 to 24 depending on length, 10
// for texts under 20 sentences); anything still over budget is cut at the
// budget and backed off to the last sentence end.
func Compress(text string, budget int) string {
	return defaultSummarizer.Compress(text, budget)
}

func (s *Summarizer) Compress(text string, budget int) string {
	text = strings.Join(strings.Fields(text), " ")
	if budget <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= budget {
		return text
	}

	if sents := SplitSentences(text); len(sents) > 12 {
		k := 16 + min(8, utf8.RuneCountInString(text)/15000)
		if len(sents) < 20 {
			k = 10
		}
		text = s.Summarize(text, k)
	}
	if utf8.RuneCountInString(text) > budget {
		text = TruncateAtSentence(text, budget)
	}
	return strings.TrimSpace(text)
}

// TruncateAtSentence cuts text to at most limit runes and, when a sentence
// terminator exists inside the cut, drops the trailing partial sentence.
func TruncateAtSentence(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	cut := text
	n := 0
	for i := range text {
		if n == limit {
			cut = text[:i]
			break
		}
		n++
	}
	if last := strings.LastIndexAny(cut, ".!?"); last > 0 {
		cut = cut[:last+1]
	}
	return strings.TrimSpace(cut)
}
