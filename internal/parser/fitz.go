package parser

import (
	"context"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// FitzExtractor reads the text layer through MuPDF.
type FitzExtractor struct{}

func (FitzExtractor) Name() string { return "fitz" }

func (e FitzExtractor) Extract(ctx context.Context, path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", &ExtractionError{Extractor: e.Name(), Path: path, Err: err}
	}
	defer doc.Close()

	var sb strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", &ExtractionError{Extractor: e.Name(), Path: path, Err: err}
		}
		text, err := doc.Text(i)
		if err != nil {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}
