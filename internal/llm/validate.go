package llm

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var codeBlockRe = regexp.MustCompile("(?s)^```(?:[a-z]+)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// AcceptSummary trims a model response and rejects it when it is empty or
// shorter than minChars runes. Rejections are KindEmpty CallErrors.
func AcceptSummary(text string, minChars int) (string, error) {
	text = stripCodeBlock(text)
	if text == "" {
		return "", &CallError{Kind: KindEmpty, Err: fmt.Errorf("empty response")}
	}
	if n := utf8.RuneCountInString(text); n < minChars {
		return "", &CallError{Kind: KindEmpty, Err: fmt.Errorf("response too short (%d < %d chars): %q", n, minChars, truncate(text, 80))}
	}
	return text, nil
}
