// Package export renders a finished summary as DOCX and PDF files.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docusum/internal/doctree"
)

// DocTitle is the heading written at the top of every artifact.
const DocTitle = "Ringkasan Per Bab"

// Renderer writes one artifact format.
type Renderer interface {
	Render(w io.Writer, res *doctree.Result) error
}

// Exporter writes every artifact for a result into a directory.
type Exporter struct {
	DOCX Renderer
	PDF  Renderer
}

// New returns an exporter with the default renderers.
func New() *Exporter {
	return &Exporter{DOCX: DOCXRenderer{}, PDF: PDFRenderer{}}
}

// DOCXName and PDFName are the artifact basenames for a document.
func DOCXName(docID string) string { return docID + ".docx" }
func PDFName(docID string) string  { return docID + ".summary.pdf" }

// Export writes <docID>.docx and <docID>.summary.pdf under dir and returns
// their basenames.
func (e *Exporter) Export(res *doctree.Result, dir string) (doctree.Artifacts, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return doctree.Artifacts{}, fmt.Errorf("create output dir: %w", err)
	}
	arts := doctree.Artifacts{DOCX: DOCXName(res.DocumentID), PDF: PDFName(res.DocumentID)}
	if err := writeFile(filepath.Join(dir, arts.DOCX), e.DOCX, res); err != nil {
		return doctree.Artifacts{}, fmt.Errorf("write docx: %w", err)
	}
	if err := writeFile(filepath.Join(dir, arts.PDF), e.PDF, res); err != nil {
		return doctree.Artifacts{}, fmt.Errorf("write pdf: %w", err)
	}
	return arts, nil
}

// Exists reports whether every artifact named in arts is present under dir.
func Exists(dir string, arts doctree.Artifacts) bool {
	for _, name := range []string{arts.DOCX, arts.PDF} {
		if name == "" {
			return false
		}
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

// writeFile renders into a temp file and renames it into place so readers
// never see a partial artifact.
func writeFile(path string, r Renderer, res *doctree.Result) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := r.Render(tmp, res); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// paragraphs splits a summary into its blank-line separated paragraphs.
func paragraphs(summary string) []string {
	var out []string
	for _, p := range strings.Split(summary, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sectionBody is the text rendered for a section; skipped chapters get a
// placeholder so the heading is not left dangling.
func sectionBody(s doctree.Section) []string {
	if ps := paragraphs(s.Summary); len(ps) > 0 {
		return ps
	}
	return []string{"(Tidak ada konten yang cukup untuk diringkas.)"}
}
