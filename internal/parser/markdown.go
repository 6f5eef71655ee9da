package parser

import (
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownLoader handles Markdown files. The text passes through
// verbatim; goldmark is only used to pull a document title from the
// first heading, since the atomizer does its own structural scan.
type MarkdownLoader struct{}

func (l *MarkdownLoader) Load(r io.Reader, filename string) (*Source, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	title := firstHeading(src)
	if title == "" {
		title = titleFromFilename(filename)
	}

	return &Source{
		Title: title,
		Text:  string(src),
	}, nil
}

// firstHeading returns the text of the first heading in the document,
// or "" if there is none.
func firstHeading(src []byte) string {
	md := goldmark.New()
	docNode := md.Parser().Parse(text.NewReader(src))

	for n := docNode.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			return strings.TrimSpace(headingText(h, src))
		}
	}
	return ""
}

func headingText(n ast.Node, src []byte) string {
	var buf strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
		} else {
			buf.WriteString(headingText(c, src))
		}
	}
	return buf.String()
}
