package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// CalloutNode is a blockquote that opened with a `[!type]` marker. Its
// children are the blockquote's remaining content.
type CalloutNode struct {
	ast.BaseBlock
	CalloutType string
	Title       string
	Foldable    bool
	Collapsed   bool
}

// KindCallout is the ast.NodeKind of CalloutNode.
var KindCallout = ast.NewNodeKind("Callout")

func (n *CalloutNode) Kind() ast.NodeKind { return KindCallout }

func (n *CalloutNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Type":      n.CalloutType,
		"Title":     n.Title,
		"Collapsed": boolString(n.Collapsed),
	}, nil)
}

// calloutMarker matches "[!type]", an optional fold sign, and the title.
var calloutMarker = regexp.MustCompile(`^\s*\[!([A-Za-z0-9-]+)\]([+-]?)\s*(.*?)\s*$`)

type calloutTransformer struct{}

func (t *calloutTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()

	var quotes []*ast.Blockquote
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if bq, ok := n.(*ast.Blockquote); ok && entering {
			quotes = append(quotes, bq)
		}
		return ast.WalkContinue, nil
	})

	for _, bq := range quotes {
		para, ok := bq.FirstChild().(*ast.Paragraph)
		if !ok || para.Lines().Len() == 0 {
			continue
		}
		first := para.Lines().At(0)
		m := calloutMarker.FindSubmatch(first.Value(source))
		if m == nil {
			continue
		}

		kind := strings.ToLower(string(m[1]))
		title := string(m[3])
		if title == "" {
			title = strings.ToUpper(kind[:1]) + kind[1:]
		}
		node := &CalloutNode{
			CalloutType: kind,
			Title:       title,
			Foldable:    len(m[2]) > 0,
			Collapsed:   string(m[2]) == "-",
		}

		dropFirstLine(para, first.Stop)
		if para.ChildCount() == 0 {
			bq.RemoveChild(bq, para)
		}

		for child := bq.FirstChild(); child != nil; {
			next := child.NextSibling()
			bq.RemoveChild(bq, child)
			node.AppendChild(node, child)
			child = next
		}

		parent := bq.Parent()
		parent.ReplaceChild(parent, bq, node)
	}
}

// dropFirstLine removes the inline children of para that start before stop.
func dropFirstLine(para *ast.Paragraph, stop int) {
	for child := para.FirstChild(); child != nil; {
		start, ok := inlineStart(child)
		if ok && start >= stop {
			break
		}
		next := child.NextSibling()
		para.RemoveChild(para, child)
		child = next
	}
}

// inlineStart returns the source offset of the first text segment in n.
func inlineStart(n ast.Node) (int, bool) {
	if t, ok := n.(*ast.Text); ok {
		return t.Segment.Start, true
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if start, ok := inlineStart(c); ok {
			return start, true
		}
	}
	return 0, false
}

type calloutRenderer struct {
	html.Config
}

func newCalloutRenderer(opts ...html.Option) renderer.NodeRenderer {
	r := &calloutRenderer{Config: html.NewConfig()}
	for _, opt := range opts {
		opt.SetHTMLOption(&r.Config)
	}
	return r
}

func (r *calloutRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindCallout, r.renderCallout)
}

func (r *calloutRenderer) renderCallout(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*CalloutNode)

	if !entering {
		_, _ = w.WriteString("</div></div>\n")
		return ast.WalkContinue, nil
	}

	_, _ = w.WriteString(`<div class="callout" data-callout="`)
	_, _ = w.Write(util.EscapeHTML([]byte(n.CalloutType)))
	_, _ = w.WriteString(`"`)
	if n.Foldable {
		fold := "expanded"
		if n.Collapsed {
			fold = "collapsed"
		}
		_, _ = w.WriteString(` data-callout-fold="` + fold + `"`)
	}
	_, _ = w.WriteString(">\n")

	_, _ = w.WriteString(`<div class="callout-title"><div class="callout-icon"></div><div class="callout-title-inner">`)
	_, _ = w.Write(util.EscapeHTML([]byte(n.Title)))
	_, _ = w.WriteString(`</div>`)
	if n.Foldable {
		_, _ = w.WriteString(`<div class="callout-fold"></div>`)
	}
	_, _ = w.WriteString("</div>\n")

	_, _ = w.WriteString(`<div class="callout-content">` + "\n")
	return ast.WalkContinue, nil
}

type calloutExtension struct{}

// Callout renders Obsidian-style `> [!type]` blockquotes as callout boxes.
var Callout goldmark.Extender = &calloutExtension{}

func (e *calloutExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithASTTransformers(
			util.Prioritized(&calloutTransformer{}, 150),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(newCalloutRenderer(), 500),
		),
	)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// plainText concatenates the text segments below n.
func plainText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}
