package extractive

import "strings"

// EstimateTokens gives a rough token count for prompt-size logging.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	// Words are a better proxy than bytes for mixed Indonesian/English text.
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
