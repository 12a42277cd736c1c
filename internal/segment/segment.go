// Package segment splits normalized thesis text into chapters.
package segment

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/dgallion1/docusum/internal/doctree"
)

// FallbackTitle names the single chapter produced when no heading is found.
const FallbackTitle = "Chapter I"

var (
	headingRe    = regexp.MustCompile(`(?i)^[ \t]*(bab|chapter)[ \t]+([ivxlc]+|\d{1,2})\b[ \t]*[:.\-]?[ \t]*(.*)$`)
	tocLineRe    = regexp.MustCompile(`(?:\.[ \t]?){5,}[ \t]*(?:\d+|[ivxlc]+)[ \t]*$`)
	tocHeaderRe  = regexp.MustCompile(`(?i)^[ \t]*(?:daftar isi|table of contents|contents)[ \t]*$`)
	backMatterRe = regexp.MustCompile(`(?i)^[ \t]*(?:daftar pustaka|daftar referensi|references|bibliography|appendices|(?:lampiran|appendix)(?:[ \t]+(?:\d+|[a-z]|[ivxlc]+)\b[^\n]{0,60})?)[ \t]*:?[ \t]*$`)
)

// Split segments text into chapters in document order. It never returns an
// empty slice: without any recognizable heading the whole text becomes one
// chapter titled FallbackTitle.
func Split(text string) []*doctree.Chapter {
	lines := strings.Split(text, "\n")

	// Front matter: everything before the first chapter-one heading.
	for i, line := range lines {
		if n, ok := headingNumber(line); ok && n == 1 {
			lines = lines[i:]
			break
		}
	}

	// Table-of-contents noise.
	kept := lines[:0:0]
	for _, line := range lines {
		if tocLineRe.MatchString(line) || tocHeaderRe.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	lines = kept

	// Bibliography and appendices run to the end of the text. Only headings
	// after the last chapter heading count, so a TOC listing cannot cut the body.
	lastHeading := -1
	for i, line := range lines {
		if isHeading(line) {
			lastHeading = i
		}
	}
	if lastHeading >= 0 {
		for i := lastHeading + 1; i < len(lines); i++ {
			if backMatterRe.MatchString(lines[i]) {
				lines = lines[:i]
				break
			}
		}
	}

	blocks := splitBlocks(lines)
	blocks = dropGhosts(blocks)

	if len(blocks) == 0 {
		return []*doctree.Chapter{doctree.NewChapter(0, FallbackTitle, strings.TrimSpace(text))}
	}
	chapters := make([]*doctree.Chapter, len(blocks))
	for i, b := range blocks {
		chapters[i] = doctree.NewChapter(i, b.title, b.body)
	}
	return chapters
}

type block struct {
	title  string
	body   string
	number int
	filled bool // body has text other than listing lines
}

func splitBlocks(lines []string) []block {
	var blocks []block
	var cur *block
	var body []string

	flush := func() {
		if cur == nil {
			return
		}
		cur.title, body = foldTitle(cur.title, body)
		cur.body = strings.TrimSpace(strings.Join(body, "\n"))
		cur.filled = substantive(body)
		blocks = append(blocks, *cur)
	}

	// Once any chapter has a body, numbering only moves forward: a heading
	// that does not is a wrapped cross-reference ("Bab 2 Tinjauan ...").
	lastNumber := 0
	bodySeen := false
	hasBody := func() bool {
		if bodySeen || cur == nil {
			return bodySeen
		}
		_, rest := foldTitle(cur.title, body)
		return substantive(rest)
	}

	for _, line := range lines {
		if n, ok := headingNumber(line); ok && (n > lastNumber || !hasBody()) {
			if hasBody() {
				bodySeen = true
			}
			flush()
			cur = &block{title: strings.Join(strings.Fields(line), " "), number: n}
			lastNumber = n
			body = nil
			continue
		}
		// Text before the first heading is not part of any chapter.
		if cur != nil {
			body = append(body, line)
		}
	}
	flush()
	return blocks
}

// foldTitle moves a short upper-case line under a bare "BAB II" heading into
// the title, e.g. "BAB II" + "TINJAUAN PUSTAKA".
func foldTitle(title string, body []string) (string, []string) {
	m := headingRe.FindStringSubmatch(title)
	if m == nil || strings.TrimSpace(m[3]) != "" {
		return title, body
	}
	for i, line := range body {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		if len(t) <= 80 && isUpperLine(t) {
			return title + " " + strings.Join(strings.Fields(t), " "), body[i+1:]
		}
		break
	}
	return title, body
}

// dropGhosts keeps one block per chapter number: the first filled occurrence,
// or the last occurrence when none is filled. Repeats come from TOC entries
// without dot leaders, which precede the real chapters. A later block never
// replaces an earlier chapter that has a body.
func dropGhosts(blocks []block) []block {
	keep := make(map[int]int)
	for i, b := range blocks {
		j, seen := keep[b.number]
		if !seen || !blocks[j].filled {
			keep[b.number] = i
		}
	}
	out := blocks[:0:0]
	for i, b := range blocks {
		if keep[b.number] == i {
			out = append(out, b)
		}
	}
	return out
}

// substantive reports whether body holds chapter text rather than nothing or
// TOC listing lines such as "DAFTAR PUSTAKA".
func substantive(body []string) bool {
	for _, line := range body {
		t := strings.TrimSpace(line)
		if t != "" && !backMatterRe.MatchString(t) && !tocHeaderRe.MatchString(t) {
			return true
		}
	}
	return false
}

func isHeading(line string) bool {
	_, ok := headingNumber(line)
	return ok
}

// headingNumber reports whether line is a chapter heading and returns its
// number. The text after the numeral must be empty or look like a title:
// capitalized, short, and not ending like a sentence. This rejects running
// text that happens to start with "Bab II" after a line wrap.
func headingNumber(line string) (int, bool) {
	m := headingRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	n, ok := ParseNumeral(m[2])
	if !ok {
		return 0, false
	}
	rest := strings.TrimSpace(m[3])
	if rest == "" {
		return n, true
	}
	if len(rest) > 80 || strings.ContainsAny(rest[len(rest)-1:], ".,;") {
		return 0, false
	}
	first := []rune(rest)[0]
	if unicode.IsLetter(first) && !unicode.IsUpper(first) {
		return 0, false
	}
	return n, true
}

// ChapterNumber extracts the chapter number from a title such as
// "BAB IV HASIL" or "Chapter 2: Method".
func ChapterNumber(title string) (int, bool) {
	m := headingRe.FindStringSubmatch(title)
	if m == nil {
		return 0, false
	}
	return ParseNumeral(m[2])
}

// ParseNumeral parses an Arabic or Roman (I, V, X, L, C) numeral.
func ParseNumeral(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, n > 0
	}
	values := map[rune]int{'i': 1, 'v': 5, 'x': 10, 'l': 50, 'c': 100}
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return 0, false
	}
	total := 0
	for i, r := range runes {
		v, ok := values[r]
		if !ok {
			return 0, false
		}
		if i+1 < len(runes) && values[runes[i+1]] > v {
			total -= v
		} else {
			total += v
		}
	}
	return total, total > 0
}

func isUpperLine(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}
