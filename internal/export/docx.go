package export

import (
	"io"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/docusum/internal/doctree"
)

// DOCXRenderer writes a Word document: a centered title, the source file
// name, then a bold heading and the summary paragraphs for each chapter.
type DOCXRenderer struct{}

func (DOCXRenderer) Render(w io.Writer, res *doctree.Result) error {
	doc := docx.New().WithDefaultTheme()

	title := doc.AddParagraph()
	title.AddText(DocTitle).Size("32").Bold()
	title.Justification("center")

	if res.Filename != "" {
		doc.AddParagraph().AddText("File: " + res.Filename).Size("20")
	}

	for _, s := range res.Sections {
		doc.AddParagraph().AddText(s.Title).Size("26").Bold()
		for _, p := range sectionBody(s) {
			para := doc.AddParagraph()
			para.AddText(p).Size("22")
			para.Justification("both")
		}
	}

	_, err := doc.WriteTo(w)
	return err
}
