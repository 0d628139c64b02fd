package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// MermaidNode is a ```mermaid fence, rendered for mermaid.js instead of
// being highlighted.
type MermaidNode struct {
	ast.BaseBlock
}

// KindMermaid is the ast.NodeKind of MermaidNode.
var KindMermaid = ast.NewNodeKind("Mermaid")

func (n *MermaidNode) Kind() ast.NodeKind { return KindMermaid }

func (n *MermaidNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

var mermaidKey = parser.NewContextKey()

type mermaidTransformer struct{}

func (t *mermaidTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var fences []*ast.FencedCodeBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if fcb, ok := n.(*ast.FencedCodeBlock); ok && entering {
			if bytes.Equal(fcb.Language(source), []byte("mermaid")) {
				fences = append(fences, fcb)
			}
		}
		return ast.WalkContinue, nil
	})
	if len(fences) == 0 {
		return
	}

	pc.Set(mermaidKey, true)
	for _, fcb := range fences {
		node := &MermaidNode{}
		node.SetLines(fcb.Lines())
		parent := fcb.Parent()
		parent.ReplaceChild(parent, fcb, node)
	}
}

type mermaidRenderer struct{}

func (r *mermaidRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMermaid, r.render)
}

func (r *mermaidRenderer) render(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("</div>\n")
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<div class="mermaid">`)
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		_, _ = w.Write(util.EscapeHTML(seg.Value(source)))
	}
	return ast.WalkContinue, nil
}

type mermaidExtension struct{}

// Mermaid turns ```mermaid fences into diagrams drawn in the browser.
var Mermaid goldmark.Extender = &mermaidExtension{}

func (e *mermaidExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&mermaidTransformer{}, 500),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&mermaidRenderer{}, 500),
	))
}
