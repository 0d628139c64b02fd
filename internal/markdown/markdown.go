// Package markdown turns page sources into HTML fragments.
package markdown

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "github"

// Document is a converted page.
type Document struct {
	HTML     string
	Metadata map[string]string
	// Heading is the text of the first level-1 heading, if any.
	Heading string
	// Mermaid and Math report whether the page needs the diagram or
	// KaTeX scripts.
	Mermaid bool
	Math    bool
}

// pageKey holds the content path of the page being converted.
var pageKey = parser.NewContextKey()

// Converter renders markdown with the site's extensions enabled.
type Converter struct {
	md goldmark.Markdown
}

// Option configures a Converter.
type Option func(*options)

type options struct {
	links *LinkIndex
}

// WithLinks resolves wikilinks against index.
func WithLinks(index *LinkIndex) Option {
	return func(o *options) { o.links = index }
}

// NewConverter returns a Converter that highlights code with the named
// chroma style. Highlighted code uses CSS classes; the stylesheet is
// written separately.
func NewConverter(style string, opts ...Option) *Converter {
	if style == "" {
		style = DefaultStyle
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			meta.Meta,
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
				highlighting.WithGuessLanguage(true),
			),
			Mark,
			Mermaid,
			Math,
			Wikilink(o.links),
			Youtube,
			HeadingShift,
			Callout,
			Anchor,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
	return &Converter{md: md}
}

// Convert renders src with wikilinks relative to the site root.
func (c *Converter) Convert(src []byte) (Document, error) {
	return c.ConvertPage(src, "")
}

// ConvertPage renders src as the page at content path relPath, so that
// wikilinks are relative to its output location. Front matter values are
// flattened to strings.
func (c *Converter) ConvertPage(src []byte, relPath string) (Document, error) {
	ctx := parser.NewContext()
	ctx.Set(pageKey, relPath)
	doc := c.md.Parser().Parse(text.NewReader(src), parser.WithContext(ctx))

	var buf bytes.Buffer
	if err := c.md.Renderer().Render(&buf, src, doc); err != nil {
		return Document{}, fmt.Errorf("rendering markdown: %w", err)
	}

	out := Document{
		HTML:     buf.String(),
		Metadata: make(map[string]string),
		Mermaid:  ctx.Get(mermaidKey) != nil,
		Math:     ctx.Get(mathKey) != nil,
	}
	if h, ok := ctx.Get(titleKey).(*ast.Heading); ok {
		out.Heading = headingText(h, src)
	}
	for k, v := range meta.Get(ctx) {
		out.Metadata[k] = fmt.Sprint(v)
	}
	return out, nil
}

// headingText is the heading's text without the appended anchor link.
func headingText(h *ast.Heading, src []byte) string {
	var buf bytes.Buffer
	for c := h.FirstChild(); c != nil; c = c.NextSibling() {
		if l, ok := c.(*ast.Link); ok {
			if class, ok := l.AttributeString("class"); ok {
				if b, ok := class.([]byte); ok && string(b) == "anchor" {
					continue
				}
			}
		}
		buf.WriteString(plainText(c, src))
	}
	return string(bytes.TrimSpace(buf.Bytes()))
}
