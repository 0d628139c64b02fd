package markdown

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

type anchorTransformer struct{}

// Transform appends a self-link to every heading that received an id.
func (t *anchorTransformer) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	var headings []*ast.Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering {
			headings = append(headings, h)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, h := range headings {
		id, ok := h.AttributeString("id")
		if !ok {
			continue
		}
		var ref []byte
		switch v := id.(type) {
		case []byte:
			ref = v
		case string:
			ref = []byte(v)
		default:
			continue
		}

		link := ast.NewLink()
		link.Destination = append([]byte("#"), ref...)
		link.SetAttributeString("class", []byte("anchor"))
		link.AppendChild(link, ast.NewString([]byte("#")))

		h.AppendChild(h, ast.NewString([]byte(" ")))
		h.AppendChild(h, link)
	}
}

type anchorExtension struct{}

// Anchor adds a "#" permalink after each heading.
var Anchor goldmark.Extender = &anchorExtension{}

func (e *anchorExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithASTTransformers(
			util.Prioritized(&anchorTransformer{}, 900),
		),
	)
}
