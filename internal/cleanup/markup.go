package cleanup

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

var (
	mdParser   = goldmark.New().Parser()
	htmlPolicy = bluemonday.StrictPolicy()
)

// StripMarkup turns a Markdown or HTML-flavored model response into plain
// paragraphs separated by blank lines. Headings and list items become
// paragraphs of their own; emphasis, links and tags are reduced to their text.
func StripMarkup(raw string) string {
	src := []byte(raw)
	doc := mdParser.Parse(text.NewReader(src))

	var paras []string
	var sb strings.Builder
	flush := func() {
		if t := strings.TrimSpace(sb.String()); t != "" {
			paras = append(paras, t)
		}
		sb.Reset()
	}

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Paragraph, *ast.Heading, *ast.TextBlock:
			if !entering {
				flush()
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					sb.Write(seg.Value(src))
				}
				flush()
			}
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if entering {
				sb.Write(node.Segment.Value(src))
				switch {
				case node.HardLineBreak():
					sb.WriteByte('\n')
				case node.SoftLineBreak():
					sb.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				sb.Write(node.Value)
			}
		case *ast.RawHTML:
			if entering {
				for i := 0; i < node.Segments.Len(); i++ {
					seg := node.Segments.At(i)
					sb.Write(seg.Value(src))
				}
			}
		case *ast.AutoLink:
			if entering {
				sb.Write(node.Label(src))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	flush()

	out := strings.Join(paras, "\n\n")
	return strings.TrimSpace(html.UnescapeString(htmlPolicy.Sanitize(out)))
}
