package markdown

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"path"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/ziadkadry99/blaze/internal/slug"
)

// LinkIndex resolves wikilink targets to output paths relative to the site
// root. Pages are known by content path and by file name, both without the
// .md extension and case-insensitively; "dir/index.md" also answers to the
// directory. Other files are known by content path and by file name.
type LinkIndex struct {
	pages nameIndex
	files nameIndex
}

type nameIndex struct {
	byPath map[string]string
	byName map[string]string
	depth  map[string]int
}

func newNameIndex() nameIndex {
	return nameIndex{
		byPath: make(map[string]string),
		byName: make(map[string]string),
		depth:  make(map[string]int),
	}
}

// add records out under key and under key's base name. A name already
// claimed by a shallower path is kept.
func (ix nameIndex) add(key, out string) {
	ix.byPath[key] = out
	name := path.Base(key)
	depth := strings.Count(key, "/")
	if d, ok := ix.depth[name]; ok && d <= depth {
		return
	}
	ix.depth[name] = depth
	ix.byName[name] = out
}

func (ix nameIndex) lookup(key string) (string, bool) {
	if out, ok := ix.byPath[key]; ok {
		return out, true
	}
	out, ok := ix.byName[path.Base(key)]
	return out, ok
}

// NewLinkIndex indexes slash-separated content paths. Markdown files map to
// their rendered page, everything else to its copied location.
func NewLinkIndex(paths []string) *LinkIndex {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	x := &LinkIndex{pages: newNameIndex(), files: newNameIndex()}
	for _, p := range sorted {
		if !isMarkdownPath(p) {
			x.files.add(strings.ToLower(p), p)
			continue
		}
		out := slug.HTMLPath(p)
		stem := strings.ToLower(strings.TrimSuffix(p, path.Ext(p)))
		x.pages.add(stem, out)
		if dir := path.Dir(stem); path.Base(stem) == "index" && dir != "." {
			x.pages.add(dir, out)
		}
	}
	return x
}

// Resolve returns the output path for target.
func (x *LinkIndex) Resolve(target string) (string, bool) {
	if x == nil {
		return "", false
	}
	key := strings.ToLower(strings.Trim(target, "/ "))
	if ext := path.Ext(key); ext != "" && ext != ".md" {
		return x.files.lookup(key)
	}
	return x.pages.lookup(strings.TrimSuffix(key, ".md"))
}

// Sum digests the index so cached pages are re-rendered when link targets
// appear or move.
func (x *LinkIndex) Sum() string {
	h := sha256.New()
	if x == nil {
		return hex.EncodeToString(h.Sum(nil))
	}
	for _, m := range []map[string]string{x.pages.byPath, x.pages.byName, x.files.byPath, x.files.byName} {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			h.Write([]byte(k))
			h.Write([]byte{0})
			h.Write([]byte(m[k]))
			h.Write([]byte{0})
		}
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func isMarkdownPath(p string) bool {
	return strings.EqualFold(path.Ext(p), ".md")
}

func isImagePath(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".apng", ".avif", ".gif", ".jpg", ".jpeg", ".jfif", ".pjpeg", ".pjp", ".png", ".svg", ".webp":
		return true
	}
	return false
}

// WikilinkNode is an Obsidian [[link]] or ![[embed]]. Destination is
// already relative to the page being converted.
type WikilinkNode struct {
	ast.BaseInline
	Target      []byte
	Fragment    []byte
	Embed       bool
	Destination []byte
	Resolved    bool
}

// KindWikilink is the ast.NodeKind of WikilinkNode.
var KindWikilink = ast.NewNodeKind("Wikilink")

func (n *WikilinkNode) Kind() ast.NodeKind { return KindWikilink }

func (n *WikilinkNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Target":   string(n.Target),
		"Fragment": string(n.Fragment),
		"Embed":    boolString(n.Embed),
	}, nil)
}

var (
	wikiOpen  = []byte("[[")
	embedOpen = []byte("![[")
	wikiClose = []byte("]]")
)

type wikilinkParser struct {
	index *LinkIndex
}

func (p *wikilinkParser) Trigger() []byte { return []byte{'!', '['} }

func (p *wikilinkParser) Parse(_ ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, seg := block.PeekLine()

	var open int
	embed := false
	switch {
	case bytes.HasPrefix(line, wikiOpen):
		open = len(wikiOpen)
	case bytes.HasPrefix(line, embedOpen):
		open = len(embedOpen)
		embed = true
	default:
		return nil
	}
	stop := bytes.Index(line[open:], wikiClose)
	if stop <= 0 {
		return nil
	}
	stop += open

	label := text.NewSegment(seg.Start+open, seg.Start+stop)
	target := line[open:stop]
	if i := bytes.IndexByte(target, '|'); i >= 0 {
		target = target[:i]
		label = label.WithStart(label.Start + i + 1)
	}
	var fragment []byte
	if i := bytes.LastIndexByte(target, '#'); i >= 0 {
		fragment = bytes.TrimSpace(target[i+1:])
		target = target[:i]
	}
	target = bytes.TrimSpace(target)
	if label.Len() == 0 || (len(target) == 0 && len(fragment) == 0) {
		return nil
	}

	n := &WikilinkNode{
		Target:   append([]byte(nil), target...),
		Fragment: append([]byte(nil), fragment...),
		Embed:    embed,
	}
	from, _ := pc.Get(pageKey).(string)
	dest, ok := p.resolve(string(n.Target), string(n.Fragment), from)
	n.Destination = []byte(dest)
	n.Resolved = ok

	n.AppendChild(n, ast.NewTextSegment(label))
	block.Advance(stop + len(wikiClose))
	return n
}

// resolve builds the href for a link written on page from. Unknown targets
// fall back to the path the page would have if it existed.
func (p *wikilinkParser) resolve(target, fragment, from string) (string, bool) {
	anchor := ""
	if fragment != "" {
		anchor = "#" + slug.Make(fragment)
	}
	if target == "" {
		return anchor, true
	}

	out, ok := p.index.Resolve(target)
	if !ok {
		if ext := path.Ext(target); ext != "" && !strings.EqualFold(ext, ".md") {
			out = strings.TrimPrefix(target, "/")
		} else {
			out = slug.HTMLPath(strings.TrimSuffix(target, ext) + ".md")
		}
	}

	base := ""
	if from != "" {
		base = strings.Repeat("../", strings.Count(slug.HTMLPath(from), "/"))
	}
	return base + out + anchor, ok
}

type wikilinkRenderer struct{}

func (r *wikilinkRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindWikilink, r.render)
}

func (r *wikilinkRenderer) render(w util.BufWriter, src []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*WikilinkNode)
	dest := util.EscapeHTML(util.URLEscape(n.Destination, false))

	if n.Embed && isImagePath(string(n.Target)) {
		if !entering {
			return ast.WalkContinue, nil
		}
		_, _ = w.WriteString(`<img src="`)
		_, _ = w.Write(dest)
		_ = w.WriteByte('"')

		label := plainText(n, src)
		if width, height, ok := parseSize(label); ok {
			_, _ = w.WriteString(` width="` + width + `"`)
			if height != "" {
				_, _ = w.WriteString(` height="` + height + `"`)
			}
		} else if label != string(n.Target) {
			_, _ = w.WriteString(` alt="`)
			_, _ = w.Write(util.EscapeHTML([]byte(label)))
			_ = w.WriteByte('"')
		}
		_ = w.WriteByte('>')
		return ast.WalkSkipChildren, nil
	}

	if !entering {
		_, _ = w.WriteString("</a>")
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<a href="`)
	_, _ = w.Write(dest)
	if n.Resolved {
		_, _ = w.WriteString(`" class="internal">`)
	} else {
		_, _ = w.WriteString(`" class="internal unresolved">`)
	}
	return ast.WalkContinue, nil
}

// parseSize reads an Obsidian size suffix: "300" or "300x200".
func parseSize(s string) (width, height string, ok bool) {
	width, height, _ = strings.Cut(strings.TrimSpace(s), "x")
	if !isNumeric(width) || (height != "" && !isNumeric(height)) {
		return "", "", false
	}
	return width, height, true
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// linkTransformer classes ordinary links as internal or external and
// applies "|300x200" size suffixes written in image alt text.
type linkTransformer struct{}

func (t *linkTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Link:
			if _, ok := n.AttributeString("class"); !ok {
				class := "internal"
				if isExternal(string(n.Destination)) {
					class = "external"
				}
				n.SetAttributeString("class", []byte(class))
			}
		case *ast.Image:
			sizeImage(n, source)
		}
		return ast.WalkContinue, nil
	})
}

func sizeImage(img *ast.Image, source []byte) {
	last, ok := img.LastChild().(*ast.Text)
	if !ok {
		return
	}
	alt := last.Segment.Value(source)
	i := bytes.LastIndexByte(alt, '|')
	if i < 0 {
		return
	}
	width, height, ok := parseSize(string(alt[i+1:]))
	if !ok {
		return
	}
	img.SetAttributeString("width", []byte(width))
	if height != "" {
		img.SetAttributeString("height", []byte(height))
	}
	last.Segment = last.Segment.WithStop(last.Segment.Start + i)
}

func isExternal(dest string) bool {
	return strings.HasPrefix(dest, "http:") || strings.HasPrefix(dest, "https:") ||
		strings.HasPrefix(dest, "//") || strings.HasPrefix(dest, "mailto:")
}

type wikilinkExtension struct {
	index *LinkIndex
}

// Wikilink resolves [[page]], [[page#heading|label]] and ![[image.png|300]]
// against index. A nil index resolves nothing and every link falls back to
// its slugged path.
func Wikilink(index *LinkIndex) goldmark.Extender {
	return &wikilinkExtension{index: index}
}

func (e *wikilinkExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(&wikilinkParser{index: e.index}, 199),
		),
		parser.WithASTTransformers(
			util.Prioritized(&linkTransformer{}, 100),
		),
	)
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&wikilinkRenderer{}, 199),
	))
}
