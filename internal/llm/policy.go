package llm

import "github.com/dgallion1/docusum/internal/segment"

// ParagraphRange is the paragraph target for one kind of chapter. Content at
// or above Threshold characters gets Max paragraphs, shorter content Min.
type ParagraphRange struct {
	Min, Max  int
	Threshold int
}

// ParagraphPolicy maps chapter numbers to paragraph ranges. Chapters with no
// entry, or whose number cannot be read from the title, use Default.
var ParagraphPolicy = map[int]ParagraphRange{
	1: {Min: 5, Max: 7, Threshold: 8000},   // introduction
	2: {Min: 6, Max: 10, Threshold: 15000}, // literature review
	3: {Min: 5, Max: 7, Threshold: 8000},   // method
	4: {Min: 6, Max: 12, Threshold: 15000}, // results and discussion
	5: {Min: 2, Max: 4, Threshold: 3000},   // conclusion
}

var DefaultParagraphRange = ParagraphRange{Min: 4, Max: 5, Threshold: 6000}

// TargetParagraphs returns the advisory paragraph count for a chapter.
func TargetParagraphs(title string, contentLen int) int {
	r := DefaultParagraphRange
	if n, ok := segment.ChapterNumber(title); ok {
		if pr, found := ParagraphPolicy[n]; found {
			r = pr
		}
	}
	if contentLen >= r.Threshold {
		return r.Max
	}
	return r.Min
}
