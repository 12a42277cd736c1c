package llm

import (
	"fmt"
	"strings"
)

const SummaryPrompt = `Summarize the following thesis chapter in %s written in a clear academic register.
Keep technical terms and keep it dense.
Write in the SAME LANGUAGE as the input text: an Indonesian text gets an Indonesian summary, an English text gets an English summary.
Do not use bullet points, headings or markdown. Write coherent paragraphs separated by a blank line.
Do not add facts that are not in the text. Return only the summary.`

const SmoothingPrompt = `Rewrite the following summary so it reads naturally: vary sentence length and structure and connect ideas smoothly.
Keep the same language, the same paragraphs and every fact. Do not add information, headings, bullet points or commentary.
Return only the rewritten text.`

// BuildChapterPrompt creates the summary prompt for one chapter. paragraphs
// is the advisory target from TargetParagraphs.
func BuildChapterPrompt(title, text string, paragraphs int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(SummaryPrompt, paragraphPhrase(paragraphs)))
	sb.WriteString("\n\n---\n")
	if title != "" {
		sb.WriteString(fmt.Sprintf("Chapter: %q\n", title))
	}
	sb.WriteString("TEXT:\n\"\"\"")
	sb.WriteString(text)
	sb.WriteString("\"\"\"")
	return sb.String()
}

// BuildSmoothingPrompt creates the style-smoothing prompt for a summary.
func BuildSmoothingPrompt(summary string) string {
	var sb strings.Builder
	sb.WriteString(SmoothingPrompt)
	sb.WriteString("\n\nTEXT:\n\"\"\"")
	sb.WriteString(summary)
	sb.WriteString("\"\"\"")
	return sb.String()
}

func paragraphPhrase(n int) string {
	if n <= 1 {
		return "1 paragraph"
	}
	return fmt.Sprintf("%d paragraphs", n)
}
