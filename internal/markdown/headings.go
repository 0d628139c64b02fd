package markdown

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// titleKey holds the first level-1 heading as written, before shifting.
var titleKey = parser.NewContextKey()

// headingShiftTransformer moves every heading down one level, since the
// layout renders the page title as the only <h1>.
type headingShiftTransformer struct{}

func (t *headingShiftTransformer) Transform(doc *ast.Document, _ text.Reader, pc parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		if h.Level == 1 && pc.Get(titleKey) == nil {
			pc.Set(titleKey, h)
		}
		if h.Level < 6 {
			h.Level++
		}
		return ast.WalkSkipChildren, nil
	})
}

type headingShiftExtension struct{}

// HeadingShift renders "#" as <h2>, "##" as <h3> and so on.
var HeadingShift goldmark.Extender = &headingShiftExtension{}

func (e *headingShiftExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&headingShiftTransformer{}, 100),
	))
}
