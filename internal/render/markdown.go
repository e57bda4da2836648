package render

import (
	"bytes"
	"folio/internal/domain/content"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"io"
)

// table of contents depth, matching h2/h3
const (
	minTOCLevel = 2
	maxTOCLevel = 3
)

var defaultMarkdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
	),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// Markdown is a post body backed by Markdown source. It satisfies content.Body.
type Markdown struct {
	src []byte
	md  goldmark.Markdown

	doc      ast.Node
	headings []content.Heading
}

func NewMarkdown(src []byte) *Markdown {
	m := &Markdown{src: src, md: defaultMarkdown}
	m.doc = m.md.Parser().Parse(text.NewReader(src), parser.WithContext(parser.NewContext()))
	m.headings = collectHeadings(m.doc, src)
	return m
}

func (m *Markdown) Source() []byte {
	return m.src
}

func (m *Markdown) Render(w io.Writer) error {
	return m.md.Renderer().Render(w, m.src, m.doc)
}

func (m *Markdown) Headings() []content.Heading {
	return m.headings
}

// Text returns the prose of the body with Markdown syntax and code blocks removed.
func (m *Markdown) Text() string {
	var buf bytes.Buffer
	ast.Walk(m.doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			buf.Write(t.Segment.Value(m.src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		if n.Type() == ast.TypeBlock && buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func collectHeadings(doc ast.Node, src []byte) []content.Heading {
	var heads []content.Heading
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if h.Level < minTOCLevel || h.Level > maxTOCLevel {
			return ast.WalkSkipChildren, nil
		}
		var idStr string
		if id, ok := h.AttributeString("id"); ok {
			switch v := id.(type) {
			case string:
				idStr = v
			case []byte:
				idStr = string(v)
			}
		}
		var textBuf bytes.Buffer
		for c := h.FirstChild(); c != nil; c = c.NextSibling() {
			if seg, ok := c.(*ast.Text); ok {
				textBuf.Write(seg.Segment.Value(src))
			}
		}
		heads = append(heads, content.Heading{
			Level: h.Level,
			ID:    idStr,
			Text:  textBuf.String(),
		})
		return ast.WalkSkipChildren, nil
	})
	return heads
}
