package markdown

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// YoutubeNode replaces an image whose source is a YouTube video.
type YoutubeNode struct {
	ast.BaseInline
	VideoID string
}

// KindYoutube is the ast.NodeKind of YoutubeNode.
var KindYoutube = ast.NewNodeKind("Youtube")

func (n *YoutubeNode) Kind() ast.NodeKind { return KindYoutube }

func (n *YoutubeNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"VideoID": n.VideoID}, nil)
}

var videoID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// youtubeID extracts the video id from watch, embed and youtu.be URLs.
func youtubeID(dest string) string {
	u, err := url.Parse(dest)
	if err != nil {
		return ""
	}

	var id string
	switch u.Host {
	case "www.youtube.com", "youtube.com", "m.youtube.com":
		if u.Path == "/watch" {
			id = u.Query().Get("v")
		} else if rest, ok := strings.CutPrefix(u.Path, "/embed/"); ok {
			id = rest
		}
	case "youtu.be":
		id = strings.TrimPrefix(u.Path, "/")
	}
	if !videoID.MatchString(id) {
		return ""
	}
	return id
}

type youtubeTransformer struct{}

func (t *youtubeTransformer) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	var images []*ast.Image
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if img, ok := n.(*ast.Image); ok && entering {
			images = append(images, img)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, img := range images {
		id := youtubeID(string(img.Destination))
		if id == "" {
			continue
		}
		parent := img.Parent()
		parent.ReplaceChild(parent, img, &YoutubeNode{VideoID: id})
	}
}

type youtubeRenderer struct{}

func (r *youtubeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindYoutube, r.render)
}

func (r *youtubeRenderer) render(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		n := node.(*YoutubeNode)
		_, _ = w.WriteString(`<iframe class="youtube" src="https://www.youtube.com/embed/` + n.VideoID +
			`" frameborder="0" allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture" allowfullscreen></iframe>`)
	}
	return ast.WalkSkipChildren, nil
}

type youtubeExtension struct{}

// Youtube embeds ![](https://youtu.be/...) images as video players.
var Youtube goldmark.Extender = &youtubeExtension{}

func (e *youtubeExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&youtubeTransformer{}, 500),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&youtubeRenderer{}, 500),
	))
}
