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

// MathNode is TeX between $ or $$ delimiters. Its children are the raw
// source segments, typeset by KaTeX in the browser.
type MathNode struct {
	ast.BaseInline
	Display bool
}

// KindMath is the ast.NodeKind of MathNode.
var KindMath = ast.NewNodeKind("Math")

func (n *MathNode) Kind() ast.NodeKind { return KindMath }

func (n *MathNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Display": boolString(n.Display)}, nil)
}

var mathKey = parser.NewContextKey()

type mathParser struct{}

func (p *mathParser) Trigger() []byte { return []byte{'$'} }

// Parse reads $inline$ and $$display$$ math, which may span lines of the
// same paragraph. Inline math must not start or end with a space, so
// prices like "$5 and $10" stay text.
func (p *mathParser) Parse(_ ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if len(line) < 2 || block.PrecendingCharacter() == '\\' {
		return nil
	}
	display := line[1] == '$'
	delim := []byte("$")
	if display {
		delim = []byte("$$")
	} else if util.IsSpace(line[1]) {
		return nil
	}

	lineNo, pos := block.Position()
	block.Advance(len(delim))

	node := &MathNode{Display: display}
	for {
		line, seg := block.PeekLine()
		if len(line) == 0 {
			break
		}
		if i := closingDelimiter(line, delim, display); i >= 0 {
			if i > 0 {
				node.AppendChild(node, ast.NewTextSegment(seg.WithStop(seg.Start+i)))
			}
			block.Advance(i + len(delim))
			pc.Set(mathKey, true)
			return node
		}
		node.AppendChild(node, ast.NewTextSegment(seg))
		block.Advance(len(line))
	}

	block.SetPosition(lineNo, pos)
	return nil
}

// closingDelimiter returns the index of the first unescaped delim in line,
// or -1.
func closingDelimiter(line, delim []byte, display bool) int {
	for from := 0; from < len(line); {
		i := bytes.Index(line[from:], delim)
		if i < 0 {
			return -1
		}
		i += from

		backslashes := 0
		for j := i - 1; j >= 0 && line[j] == '\\'; j-- {
			backslashes++
		}
		switch {
		case backslashes%2 == 1:
		case !display && (i == 0 || util.IsSpace(line[i-1])):
		default:
			return i
		}
		from = i + 1
	}
	return -1
}

type mathRenderer struct{}

func (r *mathRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMath, r.render)
}

func (r *mathRenderer) render(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*MathNode)
	open, end := `<span class="math math-inline">\(`, `\)</span>`
	if n.Display {
		open, end = `<span class="math math-display">\[`, `\]</span>`
	}

	_, _ = w.WriteString(open)
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			_, _ = w.Write(util.EscapeHTML(t.Segment.Value(source)))
		}
	}
	_, _ = w.WriteString(end)
	return ast.WalkSkipChildren, nil
}

type mathExtension struct{}

// Math passes $...$ and $$...$$ through untouched for KaTeX.
var Math goldmark.Extender = &mathExtension{}

func (e *mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&mathParser{}, 500),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&mathRenderer{}, 500),
	))
}
