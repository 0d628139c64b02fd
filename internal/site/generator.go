// Package site builds the static HTML site from a content directory and
// serves it with live reload during development.
package site

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/blaze/internal/assets"
	"github.com/ziadkadry99/blaze/internal/buildcache"
	"github.com/ziadkadry99/blaze/internal/config"
	"github.com/ziadkadry99/blaze/internal/markdown"
	"github.com/ziadkadry99/blaze/internal/progress"
	"github.com/ziadkadry99/blaze/internal/slug"
	"github.com/ziadkadry99/blaze/internal/walker"
)

// SearchIndexName is the file the search index is written to.
const SearchIndexName = "search-index.json"

// Generator converts a content directory into a static HTML site.
type Generator struct {
	Config *config.Config
	// Cache enables incremental builds when non-nil.
	Cache    *buildcache.Store
	Progress progress.Reporter
}

// NewGenerator creates a Generator for cfg with no cache and no progress output.
func NewGenerator(cfg *config.Config) *Generator {
	return &Generator{Config: cfg, Progress: progress.Discard}
}

// Result summarizes a build.
type Result struct {
	BuildID  string
	Pages    int // published pages
	Rendered int
	Skipped  int // unchanged pages left in place
	Copied   int // static files
	Pruned   int // outputs removed for deleted or unpublished pages
}

// pageData holds the data passed to the layout for each page.
type pageData struct {
	SiteName    string
	Title       string
	TitleSuffix string
	Locale      string
	BaseURL     string
	Path        string
	BasePath    string
	Content     template.HTML
	Explorer    template.HTML
	Meta        map[string]string
	Mermaid     bool
	Math        bool
}

type page struct {
	file   walker.File
	source []byte
	doc    markdown.Document
	title  string
	output string
}

// Generate builds the site into the configured output directory.
func (g *Generator) Generate(ctx context.Context) (Result, error) {
	cfg := g.Config
	var res Result

	reporter := g.Progress
	if reporter == nil {
		reporter = progress.Discard
	}

	if g.Cache != nil {
		id, err := g.Cache.Begin(ctx)
		if err != nil {
			return res, err
		}
		res.BuildID = id
	}

	files, err := walker.Walk(walker.Config{RootDir: cfg.ContentDir, Ignore: cfg.IgnorePatterns})
	if err != nil {
		return res, fmt.Errorf("walking content dir: %w", err)
	}

	var sources, static []walker.File
	for _, f := range files {
		if f.IsMarkdown() {
			sources = append(sources, f)
		} else {
			static = append(static, f)
		}
	}

	links := linkIndex(files)
	pages, err := g.parsePages(ctx, sources, links)
	if err != nil {
		return res, err
	}
	res.Pages = len(pages)

	tmpl, layoutSum, err := g.loadLayout()
	if err != nil {
		return res, err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return res, fmt.Errorf("creating output dir: %w", err)
	}

	if err := g.writeAssets(); err != nil {
		return res, err
	}

	entries := make([]TreeEntry, len(pages))
	for i, p := range pages {
		entries[i] = TreeEntry{SourcePath: p.file.RelPath, OutputPath: p.output, Title: p.title}
	}
	tree := BuildTree(entries)
	settings := g.settingsSum(layoutSum, links.Sum())
	owned := ownedOutputs(pages, static)

	var rendered, skipped, copied atomic.Int64

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.Concurrency())

	reporter.Start(len(pages))
	for _, p := range pages {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			wrote, err := g.renderPage(egCtx, tmpl, tree, settings, res.BuildID, p, owned)
			if err != nil {
				return fmt.Errorf("rendering %s: %w", p.file.RelPath, err)
			}
			if wrote {
				rendered.Add(1)
			} else {
				skipped.Add(1)
			}
			reporter.Advance(p.file.RelPath)
			return nil
		})
	}
	for _, f := range static {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			dst := filepath.Join(cfg.OutputDir, filepath.FromSlash(f.RelPath))
			if err := copyFile(f.Path, dst); err != nil {
				return fmt.Errorf("copying %s: %w", f.RelPath, err)
			}
			copied.Add(1)
			return nil
		})
	}
	err = eg.Wait()
	reporter.Finish()
	if err != nil {
		return res, err
	}

	res.Rendered = int(rendered.Load())
	res.Skipped = int(skipped.Load())
	res.Copied = int(copied.Load())

	search := make([]SearchEntry, len(pages))
	for i, p := range pages {
		search[i] = newSearchEntry(p.output, p.title, p.source)
	}
	if err := WriteSearchIndex(search, filepath.Join(cfg.OutputDir, SearchIndexName)); err != nil {
		return res, fmt.Errorf("writing search index: %w", err)
	}

	if g.Cache != nil {
		pruned, err := g.prune(ctx, pages, owned)
		if err != nil {
			return res, err
		}
		res.Pruned = pruned

		if err := g.Cache.Finish(ctx, res.BuildID, res.Rendered, res.Skipped, res.Pruned); err != nil {
			return res, err
		}
	}

	return res, nil
}

// parsePages converts every markdown source concurrently and returns the
// published pages sorted by source path.
func (g *Generator) parsePages(ctx context.Context, sources []walker.File, links *markdown.LinkIndex) ([]*page, error) {
	conv := markdown.NewConverter(g.Config.HighlightStyle, markdown.WithLinks(links))
	parsed := make([]*page, len(sources))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.Config.Concurrency())
	for i, f := range sources {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(f.Path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", f.RelPath, err)
			}
			doc, err := conv.ConvertPage(src, f.RelPath)
			if err != nil {
				return fmt.Errorf("converting %s: %w", f.RelPath, err)
			}
			if g.Config.Explicit() && !isPublished(doc.Metadata) {
				return nil
			}
			parsed[i] = &page{
				file:   f,
				source: src,
				doc:    doc,
				title:  pageTitle(doc, f.RelPath),
				output: slug.HTMLPath(f.RelPath),
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var pages []*page
	owners := make(map[string]string)
	for _, p := range parsed {
		if p == nil {
			continue
		}
		if other, ok := owners[p.output]; ok {
			return nil, fmt.Errorf("%s and %s both map to %s", other, p.file.RelPath, p.output)
		}
		owners[p.output] = p.file.RelPath
		pages = append(pages, p)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].file.RelPath < pages[j].file.RelPath })
	return pages, nil
}

func isPublished(meta map[string]string) bool {
	return strings.EqualFold(strings.TrimSpace(meta["publish"]), "true")
}

// pageTitle picks the front matter title, then the first level-1 heading,
// then the file name.
func pageTitle(doc markdown.Document, relPath string) string {
	if t := strings.TrimSpace(doc.Metadata["title"]); t != "" {
		return t
	}
	if doc.Heading != "" {
		return doc.Heading
	}
	base := path.Base(relPath)
	return strings.TrimSuffix(base, path.Ext(base))
}

// loadLayout parses the template dir's layout.html, or the embedded layout
// when there is none. It also returns a digest of the layout source.
func (g *Generator) loadLayout() (*template.Template, string, error) {
	src := assets.Layout()
	if g.Config.TemplateDir != "" {
		data, err := os.ReadFile(filepath.Join(g.Config.TemplateDir, assets.LayoutName))
		switch {
		case err == nil:
			src = data
		case !errors.Is(err, fs.ErrNotExist):
			return nil, "", fmt.Errorf("reading layout: %w", err)
		}
	}

	tmpl, err := template.New("page").Parse(string(src))
	if err != nil {
		return nil, "", fmt.Errorf("parsing layout: %w", err)
	}
	sum := sha256.Sum256(src)
	return tmpl, hex.EncodeToString(sum[:]), nil
}

// writeAssets writes the embedded assets, then copies the non-HTML files
// from the template dir over them. The resulting scripts must compile.
func (g *Generator) writeAssets() error {
	cfg := g.Config
	if _, err := assets.Write(cfg.OutputDir, cfg.HighlightStyle); err != nil {
		return err
	}

	overrides, err := g.templateFiles()
	if err != nil {
		return err
	}
	for _, f := range overrides {
		dst := filepath.Join(cfg.OutputDir, filepath.FromSlash(f.RelPath))
		if err := copyFile(f.Path, dst); err != nil {
			return fmt.Errorf("copying template file %s: %w", f.RelPath, err)
		}
	}

	return checkScripts(overrides)
}

// templateFiles lists the non-HTML files of the template dir.
func (g *Generator) templateFiles() ([]walker.File, error) {
	if g.Config.TemplateDir == "" {
		return nil, nil
	}
	files, err := walker.Walk(walker.Config{RootDir: g.Config.TemplateDir})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("walking template dir: %w", err)
	}

	var out []walker.File
	for _, f := range files {
		if !strings.EqualFold(path.Ext(f.RelPath), ".html") {
			out = append(out, f)
		}
	}
	return out, nil
}

// checkScripts compiles the embedded scripts with template overrides applied.
func checkScripts(overrides []walker.File) error {
	scripts := assets.Scripts()
	for _, f := range overrides {
		if !strings.HasPrefix(f.RelPath, assets.ScriptDir+"/") || path.Ext(f.RelPath) != ".js" {
			continue
		}
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return err
		}
		scripts[f.RelPath] = data
	}

	if err := assets.CheckScripts(scripts); err != nil {
		return fmt.Errorf("checking scripts: %w", err)
	}
	return nil
}

// Check parses every page, the layout, and the browser scripts without
// writing anything. It returns the number of published pages.
func (g *Generator) Check(ctx context.Context) (int, error) {
	files, err := walker.Walk(walker.Config{RootDir: g.Config.ContentDir, Ignore: g.Config.IgnorePatterns})
	if err != nil {
		return 0, fmt.Errorf("walking content dir: %w", err)
	}
	var sources []walker.File
	for _, f := range files {
		if f.IsMarkdown() {
			sources = append(sources, f)
		}
	}

	pages, err := g.parsePages(ctx, sources, linkIndex(files))
	if err != nil {
		return 0, err
	}
	if _, _, err := g.loadLayout(); err != nil {
		return 0, err
	}

	overrides, err := g.templateFiles()
	if err != nil {
		return 0, err
	}
	if err := checkScripts(overrides); err != nil {
		return 0, err
	}
	return len(pages), nil
}

// settingsSum digests everything besides page content and explorer markup
// that ends up in a rendered page, including where wikilinks point.
func (g *Generator) settingsSum(layoutSum, linkSum string) string {
	cfg := g.Config
	h := sha256.New()
	for _, s := range []string{layoutSum, linkSum, cfg.PageTitle, cfg.PageTitleSuffix, cfg.Locale, cfg.BaseURL, cfg.HighlightStyle} {
		io.WriteString(h, s)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// renderPage writes one page unless the cache shows an identical output is
// already in place. It reports whether the page was written.
// Outputs listed in owned belong to this build and are never removed.
func (g *Generator) renderPage(ctx context.Context, tmpl *template.Template, tree *FileTree, settings, buildID string, p *page, owned map[string]bool) (bool, error) {
	cfg := g.Config
	basePath := basePathFor(p.output)
	explorer := tree.ToHTML(p.file.RelPath, basePath)
	outPath := filepath.Join(cfg.OutputDir, filepath.FromSlash(p.output))

	sum := sha256.New()
	for _, s := range []string{settings, p.file.ContentHash, explorer} {
		io.WriteString(sum, s)
		sum.Write([]byte{0})
	}
	hash := hex.EncodeToString(sum.Sum(nil))

	if g.Cache != nil {
		prev, err := g.Cache.Lookup(ctx, p.file.RelPath)
		if err != nil {
			return false, err
		}
		if prev != nil && prev.OutputPath != p.output && !owned[prev.OutputPath] {
			removeOutput(cfg.OutputDir, prev.OutputPath)
		}
		if prev != nil && prev.Hash == hash && prev.OutputPath == p.output && fileExists(outPath) {
			return false, nil
		}
	}

	data := pageData{
		SiteName:    cfg.PageTitle,
		Title:       p.title,
		TitleSuffix: cfg.PageTitleSuffix,
		Locale:      cfg.Locale,
		BaseURL:     strings.TrimSuffix(cfg.BaseURL, "/") + "/",
		Path:        p.output,
		BasePath:    basePath,
		Content:     template.HTML(rewriteMDLinks(p.doc.HTML, p.file.RelPath)),
		Explorer:    template.HTML(explorer),
		Meta:        p.doc.Metadata,
		Mermaid:     p.doc.Mermaid,
		Math:        p.doc.Math,
	}
	if cfg.BaseURL == "" {
		data.BaseURL = ""
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return false, fmt.Errorf("executing layout: %w", err)
	}
	if err := writeFile(outPath, buf.Bytes()); err != nil {
		return false, err
	}

	if g.Cache != nil {
		err := g.Cache.Put(ctx, buildcache.Page{
			SourcePath: p.file.RelPath,
			OutputPath: p.output,
			Hash:       hash,
			BuildID:    buildID,
		})
		if err != nil {
			return false, err
		}
	}
	return true, nil
}

// prune drops cache records of pages that are no longer published and
// removes their outputs, unless another file of this build now owns the path.
func (g *Generator) prune(ctx context.Context, pages []*page, owned map[string]bool) (int, error) {
	present := make(map[string]bool, len(pages))
	for _, p := range pages {
		present[p.file.RelPath] = true
	}
	stale, err := g.Cache.Prune(ctx, present)
	if err != nil {
		return 0, err
	}
	for _, s := range stale {
		if !owned[s.OutputPath] {
			removeOutput(g.Config.OutputDir, s.OutputPath)
		}
	}
	return len(stale), nil
}

// linkIndex lets wikilinks find every walked file. Pages left out by the
// publish mode still resolve.
func linkIndex(files []walker.File) *markdown.LinkIndex {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.RelPath
	}
	return markdown.NewLinkIndex(paths)
}

// ownedOutputs returns the output paths written by this build.
func ownedOutputs(pages []*page, static []walker.File) map[string]bool {
	owned := make(map[string]bool, len(pages)+len(static))
	for _, p := range pages {
		owned[p.output] = true
	}
	for _, f := range static {
		owned[f.RelPath] = true
	}
	return owned
}

func removeOutput(outputDir, rel string) {
	_ = os.Remove(filepath.Join(outputDir, filepath.FromSlash(rel)))
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func writeFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

var mdLinkRe = regexp.MustCompile(`href="([^"#:?]+\.md)(#[^"]*)?"`)

// rewriteMDLinks points relative links to other markdown pages at their
// rendered output. Link targets resolve against the linking page's source
// directory.
func rewriteMDLinks(content, relPath string) string {
	base := basePathFor(slug.HTMLPath(relPath))
	return mdLinkRe.ReplaceAllStringFunc(content, func(m string) string {
		sub := mdLinkRe.FindStringSubmatch(m)
		target, err := url.PathUnescape(sub[1])
		if err != nil || strings.HasPrefix(target, "/") {
			return m
		}
		resolved := path.Join(path.Dir(relPath), target)
		if strings.HasPrefix(resolved, "../") {
			return m
		}
		return `href="` + base + slug.HTMLPath(resolved) + sub[2] + `"`
	})
}
