package parser

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// BasicExtractor reads the text layer with a pure-Go PDF reader, falling back
// to pdftotext when the reader fails or finds nothing.
type BasicExtractor struct {
	FallbackPdftotext bool
}

func (e *BasicExtractor) Name() string { return "basic" }

func (e *BasicExtractor) Extract(ctx context.Context, path string) (string, error) {
	text, err := extractPDFText(path)
	if (err != nil || strings.TrimSpace(text) == "") && e.FallbackPdftotext {
		if alt, altErr := extractPdftotext(ctx, path); altErr == nil {
			return alt, nil
		} else if err == nil {
			err = altErr
		}
	}
	if err != nil {
		return "", &ExtractionError{Extractor: e.Name(), Path: path, Err: err}
	}
	return text, nil
}

func extractPDFText(path string) (string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

func extractPdftotext(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, "pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
