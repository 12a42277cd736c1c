package parser

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/sync/errgroup"
)

// OCRExtractor renders each page with MuPDF and runs tesseract on it. It is
// the slowest extractor and is only worth trying on scanned documents.
type OCRExtractor struct {
	Command  string  // tesseract binary, default "tesseract"
	Language string  // tesseract -l value, default "eng+ind"
	DPI      float64 // render resolution, default 300
	Workers  int     // pages recognized in parallel, default NumCPU
}

func (e *OCRExtractor) Name() string { return "ocr" }

func (e *OCRExtractor) Extract(ctx context.Context, path string) (string, error) {
	cmdName := e.Command
	if cmdName == "" {
		cmdName = "tesseract"
	}
	if _, err := exec.LookPath(cmdName); err != nil {
		return "", &ExtractionError{Extractor: e.Name(), Path: path, Err: fmt.Errorf("%s not found: %w", cmdName, err)}
	}
	lang := e.Language
	if lang == "" {
		lang = "eng+ind"
	}
	dpi := e.DPI
	if dpi <= 0 {
		dpi = 300
	}
	workers := e.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	tmpDir, err := os.MkdirTemp("", "docusum-ocr-*")
	if err != nil {
		return "", &ExtractionError{Extractor: e.Name(), Path: path, Err: err}
	}
	defer os.RemoveAll(tmpDir)

	images, err := renderPages(path, tmpDir, dpi)
	if err != nil {
		return "", &ExtractionError{Extractor: e.Name(), Path: path, Err: err}
	}

	pages := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, img := range images {
		g.Go(func() error {
			// A page tesseract cannot read is left blank.
			if text, err := runTesseract(gctx, cmdName, img, lang); err == nil {
				pages[i] = text
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", &ExtractionError{Extractor: e.Name(), Path: path, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return "", &ExtractionError{Extractor: e.Name(), Path: path, Err: err}
	}

	var sb strings.Builder
	for _, p := range pages {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(p)
	}
	return sb.String(), nil
}

// renderPages writes one PNG per page into dir and returns their paths in
// page order.
func renderPages(path, dir string, dpi float64) ([]string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	var paths []string
	for i := 0; i < doc.NumPage(); i++ {
		img, err := doc.ImageDPI(i, dpi)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", i+1, err)
		}
		out := filepath.Join(dir, fmt.Sprintf("page-%04d.png", i+1))
		f, err := os.Create(out)
		if err != nil {
			return nil, err
		}
		err = png.Encode(f, img)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("encode page %d: %w", i+1, err)
		}
		paths = append(paths, out)
	}
	return paths, nil
}

func runTesseract(ctx context.Context, cmdName, imagePath, lang string) (string, error) {
	cmd := exec.CommandContext(ctx, cmdName, imagePath, "stdout", "-l", lang)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract %s: %w", filepath.Base(imagePath), err)
	}
	return string(out), nil
}
