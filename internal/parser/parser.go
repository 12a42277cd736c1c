// Package parser turns PDF files into plain text. Several extractors are
// tried in a fixed order until one yields enough text.
package parser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docusum/internal/doctree"
)

// Extractor pulls the text of a PDF file at path.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, path string) (string, error)
}

// ExtractionError is returned by extractors for missing or corrupt input and
// for unavailable external tools.
type ExtractionError struct {
	Extractor string
	Path      string
	Err       error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: extract %s: %v", e.Extractor, e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// DefaultMinChars is the shortest cleaned text the chain accepts.
const DefaultMinChars = 200

// Chain runs extractors in priority order.
type Chain struct {
	Extractors []Extractor
	MinChars   int
	// Clean normalizes every extractor result before it is measured.
	Clean func(string) string
	Log   *slog.Logger
}

// Extract returns the cleaned text of the first extractor whose result is at
// least MinChars long. When none qualifies, it returns the cleaned text of the
// earliest extractor that produced any text, or "" if none did. Extractor
// errors and panics are logged and the next extractor is tried.
func (c *Chain) Extract(ctx context.Context, path string) (string, []doctree.ExtractionAttempt) {
	minChars := c.MinChars
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	log := c.Log
	if log == nil {
		log = slog.Default()
	}

	var attempts []doctree.ExtractionAttempt
	var firstNonEmpty string
	haveFirst := false

	for _, ex := range c.Extractors {
		if ctx.Err() != nil {
			break
		}
		text, err := runExtractor(ctx, ex, path)
		if err == nil && c.Clean != nil {
			text = c.Clean(text)
		}
		text = strings.TrimSpace(text)
		n := utf8.RuneCountInString(text)

		attempt := doctree.ExtractionAttempt{Extractor: ex.Name(), Chars: n, Err: err}
		if err != nil {
			log.Warn("extractor failed, trying next", "extractor", ex.Name(), "error", err)
			attempts = append(attempts, attempt)
			continue
		}
		if n >= minChars {
			attempt.Accepted = true
			attempts = append(attempts, attempt)
			log.Info("text extracted", "extractor", ex.Name(), "chars", n)
			return text, attempts
		}
		log.Warn("extractor yielded too little text", "extractor", ex.Name(), "chars", n, "min", minChars)
		attempts = append(attempts, attempt)
		if n > 0 && !haveFirst {
			firstNonEmpty = text
			haveFirst = true
		}
	}
	return firstNonEmpty, attempts
}

func runExtractor(ctx context.Context, ex Extractor, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ExtractionError{Extractor: ex.Name(), Path: path, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return ex.Extract(ctx, path)
}

// IsPDF reports whether data starts with the PDF magic bytes.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}
