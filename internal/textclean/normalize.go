package textclean

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var defaultRules = NewRuleset(Extensions{})

// Default returns the built-in ruleset.
func Default() *Ruleset { return defaultRules }

// LoadRules reads a YAML rules file and returns the default ruleset extended
// with its stop-words, banned phrases and boilerplate headings. An empty path
// returns the default ruleset.
func LoadRules(path string) (*Ruleset, error) {
	if path == "" {
		return defaultRules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var ext Extensions
	if err := yaml.Unmarshal(data, &ext); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	return NewRuleset(ext), nil
}

// Normalize cleans extracted text with the default ruleset.
func Normalize(text string) string { return defaultRules.Normalize(text) }

// StripReferences removes reference noise from a chapter body with the
// default ruleset.
func StripReferences(text string) string { return defaultRules.StripReferences(text) }

// Normalize removes OCR glyphs, captions, citations, URLs and repeated
// institutional headers, rejoins hyphen-wrapped words and collapses
// whitespace. It is applied until the text stops changing, so
// Normalize(Normalize(x)) == Normalize(x). Every rule removes text or
// swaps a character for a shorter or equal one, so the loop terminates.
func (rs *Ruleset) Normalize(text string) string {
	for {
		next := rs.Apply(StageNormalize, dropRepeatedHeaders(text))
		if next == text {
			return text
		}
		text = next
	}
}

// StripReferences is the pre-compression cleanup for a chapter body.
func (rs *Ruleset) StripReferences(text string) string {
	return rs.Apply(StageSegment, text)
}

var institutionRe = regexp.MustCompile(`(?i)^(?:universitas|university|fakultas|faculty|institut|institute|sekolah tinggi|politeknik|program studi|jurusan|department|departemen)\b`)

// dropRepeatedHeaders removes institution header lines that repeat on
// several pages, e.g. "UNIVERSITAS INDONESIA" printed at every page top.
func dropRepeatedHeaders(text string) string {
	lines := strings.Split(text, "\n")
	counts := make(map[string]int)
	for _, line := range lines {
		key := headerKey(line)
		if key != "" {
			counts[key]++
		}
	}
	repeated := false
	for _, n := range counts {
		if n >= 2 {
			repeated = true
			break
		}
	}
	if !repeated {
		return text
	}

	out := lines[:0]
	for _, line := range lines {
		if key := headerKey(line); key != "" && counts[key] >= 2 {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func headerKey(line string) string {
	t := strings.TrimSpace(line)
	if t == "" || len(t) > 120 || !institutionRe.MatchString(t) {
		return ""
	}
	return strings.ToLower(strings.Join(strings.Fields(t), " "))
}
