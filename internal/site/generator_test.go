package site

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ziadkadry99/blaze/internal/buildcache"
	"github.com/ziadkadry99/blaze/internal/config"
	"github.com/ziadkadry99/blaze/internal/db"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readOutput(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("reading %s: %v", rel, err)
	}
	return string(data)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.PageTitle = "Test Site"
	cfg.ContentDir = filepath.Join(root, "content")
	cfg.TemplateDir = filepath.Join(root, "templates")
	cfg.OutputDir = filepath.Join(root, "public")
	cfg.CacheDir = filepath.Join(root, ".blaze")
	cfg.MaxConcurrency = 4
	return cfg
}

func newCachedGenerator(t *testing.T, cfg *config.Config) *Generator {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	g := NewGenerator(cfg)
	g.Cache = buildcache.NewStore(database)
	return g
}

func TestBuildTree(t *testing.T) {
	tree := BuildTree([]TreeEntry{
		{SourcePath: "index.md", OutputPath: "index.html", Title: "Home"},
		{SourcePath: "Guides/Setup.md", OutputPath: "guides/setup.html", Title: "Setup"},
		{SourcePath: "Guides/Advanced/Tuning.md", OutputPath: "guides/advanced/tuning.html", Title: "Tuning"},
		{SourcePath: "api.md", OutputPath: "api.html", Title: "API"},
	})

	if len(tree.Children) != 3 {
		t.Fatalf("root children = %d, want 3", len(tree.Children))
	}
	guides := tree.Children[0]
	if !guides.IsDir || guides.Path != "Guides" {
		t.Fatalf("first child = %+v, want Guides dir", guides)
	}
	if tree.Children[1].Name != "api.md" || tree.Children[2].Name != "index.md" {
		t.Errorf("files not sorted: %q, %q", tree.Children[1].Name, tree.Children[2].Name)
	}
	if len(guides.Children) != 2 || guides.Children[0].Path != "Guides/Advanced" {
		t.Errorf("Guides children = %+v", guides.Children)
	}
}

func TestTreeToHTMLDetailsKeys(t *testing.T) {
	tree := BuildTree([]TreeEntry{
		{SourcePath: "a/b/page.md", OutputPath: "a/b/page.html", Title: "Page"},
		{SourcePath: "c/other.md", OutputPath: "c/other.html", Title: "Other"},
	})

	html := tree.ToHTML("a/b/page.md", "../../")

	for _, want := range []string{
		`<details data-key="a" open>`,
		`<details data-key="a/b" open>`,
		`<details data-key="c">`,
		`<a href="../../a/b/page.html" class="active">Page</a>`,
		`<a href="../../c/other.html">Other</a>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("missing %q in:\n%s", want, html)
		}
	}
}

func TestTreeToHTMLEscapes(t *testing.T) {
	tree := BuildTree([]TreeEntry{
		{SourcePath: `Q&A/x.md`, OutputPath: "q-a/x.html", Title: "<x>"},
	})
	html := tree.ToHTML("", "")
	if !strings.Contains(html, `data-key="Q&amp;A"`) || !strings.Contains(html, "&lt;x&gt;") {
		t.Errorf("not escaped:\n%s", html)
	}
}

func TestBasePathFor(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"index.html", ""},
		{"a/page.html", "../"},
		{"a/b/page.html", "../../"},
	}
	for _, tt := range tests {
		if got := basePathFor(tt.in); got != tt.want {
			t.Errorf("basePathFor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRewriteMDLinks(t *testing.T) {
	input := `<a href="Other%20Page.md">x</a> <a href="../Ref/API.md#auth">y</a> <a href="https://example.com/a.md">z</a>`
	got := rewriteMDLinks(input, "Guides/Setup.md")

	if !strings.Contains(got, `href="../guides/other-page.html"`) {
		t.Errorf("sibling link not rewritten: %s", got)
	}
	if !strings.Contains(got, `href="../ref/api.html#auth"`) {
		t.Errorf("parent link not rewritten: %s", got)
	}
	if !strings.Contains(got, `href="https://example.com/a.md"`) {
		t.Errorf("external link changed: %s", got)
	}
}

func TestSearchEntry(t *testing.T) {
	src := "---\ntitle: Project\n---\n# Project\n\nThis is the summary.\n\n```go\ncode()\n```\n\nMore content here.\n"
	e := newSearchEntry("index.html", "Project", []byte(src))

	if e.Summary != "This is the summary." {
		t.Errorf("summary = %q", e.Summary)
	}
	if strings.Contains(e.Content, "title: Project") {
		t.Errorf("front matter in content: %q", e.Content)
	}
	if !strings.Contains(e.Content, "More content here.") {
		t.Errorf("content = %q", e.Content)
	}
}

func TestSearchEntryTruncatesOnRuneBoundary(t *testing.T) {
	// "é" is two bytes, so the limit falls inside a rune.
	src := "a" + strings.Repeat("é", maxSearchContent)
	e := newSearchEntry("index.html", "Accents", []byte(src))

	if !utf8.ValidString(e.Content) {
		t.Fatalf("content is not valid UTF-8: %q", e.Content[len(e.Content)-4:])
	}
	if len(e.Content) != maxSearchContent-1 {
		t.Errorf("len(content) = %d, want %d", len(e.Content), maxSearchContent-1)
	}
}

func TestFullSiteGeneration(t *testing.T) {
	cfg := testConfig(t)

	writeTestFile(t, filepath.Join(cfg.ContentDir, "index.md"), "# Test Project\n\nWelcome.\n\nSee [setup](Guides/Getting%20Started.md).\n")
	writeTestFile(t, filepath.Join(cfg.ContentDir, "Guides", "Getting Started.md"), "---\ntitle: Getting Started\n---\n\n> [!tip]- Hint\n> Hidden body.\n\n```go\nfunc main() {}\n```\n")
	writeTestFile(t, filepath.Join(cfg.ContentDir, "Guides", "diagram.png"), "png")
	writeTestFile(t, filepath.Join(cfg.ContentDir, "private", "secret.md"), "# Secret\n")

	res, err := NewGenerator(cfg).Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Pages != 2 || res.Rendered != 2 || res.Copied != 1 {
		t.Errorf("result = %+v, want 2 pages rendered and 1 copied", res)
	}

	for _, f := range []string{
		"index.html",
		"guides/getting-started.html",
		"Guides/diagram.png",
		"base.css",
		"chroma.css",
		"blaze-scripts/explorer.js",
		SearchIndexName,
	} {
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, filepath.FromSlash(f))); err != nil {
			t.Errorf("expected %s: %v", f, err)
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "private", "secret.html")); err == nil {
		t.Error("ignored page was rendered")
	}

	index := readOutput(t, cfg.OutputDir, "index.html")
	for _, want := range []string{
		"Test Site",
		`<details data-key="Guides">`,
		`href="guides/getting-started.html"`,
		`blaze-scripts/explorer.js`,
	} {
		if !strings.Contains(index, want) {
			t.Errorf("index.html missing %q", want)
		}
	}

	page := readOutput(t, cfg.OutputDir, "guides/getting-started.html")
	for _, want := range []string{
		`<details data-key="Guides" open>`,
		`class="active"`,
		`data-callout-fold="collapsed"`,
		`class="chroma"`,
		`href="../base.css"`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("getting-started.html missing %q", want)
		}
	}

	var entries []SearchEntry
	if err := json.Unmarshal([]byte(readOutput(t, cfg.OutputDir, SearchIndexName)), &entries); err != nil {
		t.Fatalf("parsing search index: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("search entries = %d, want 2", len(entries))
	}
}

func TestGenerateWikilinks(t *testing.T) {
	cfg := testConfig(t)
	g := newCachedGenerator(t, cfg)
	ctx := context.Background()

	writeTestFile(t, filepath.Join(cfg.ContentDir, "index.md"), "# Home\n\nRead [[Getting Started]] then [[FAQ]].\n")
	writeTestFile(t, filepath.Join(cfg.ContentDir, "Guides", "Getting Started.md"), "# Start\n\n![[diagram.png|300]]\n\nSolve $x^2 = 4$.\n")
	writeTestFile(t, filepath.Join(cfg.ContentDir, "Guides", "diagram.png"), "png")

	if _, err := g.Generate(ctx); err != nil {
		t.Fatalf("first build: %v", err)
	}

	index := readOutput(t, cfg.OutputDir, "index.html")
	for _, want := range []string{
		`<a href="guides/getting-started.html" class="internal">Getting Started</a>`,
		`<a href="faq.html" class="internal unresolved">FAQ</a>`,
	} {
		if !strings.Contains(index, want) {
			t.Errorf("index.html missing %q", want)
		}
	}
	if strings.Contains(index, "katex") {
		t.Error("index.html loads KaTeX without any math")
	}

	page := readOutput(t, cfg.OutputDir, "guides/getting-started.html")
	for _, want := range []string{
		`<img src="../Guides/diagram.png" width="300">`,
		`math-inline`,
		`katex.min.js`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("getting-started.html missing %q", want)
		}
	}

	// Creating the missing page turns the link on the home page into a real one.
	writeTestFile(t, filepath.Join(cfg.ContentDir, "FAQ.md"), "# FAQ\n")
	if _, err := g.Generate(ctx); err != nil {
		t.Fatalf("second build: %v", err)
	}
	index = readOutput(t, cfg.OutputDir, "index.html")
	if !strings.Contains(index, `<a href="faq.html" class="internal">FAQ</a>`) {
		t.Errorf("index.html still has an unresolved FAQ link")
	}
}

func TestGenerateExplicitPublish(t *testing.T) {
	cfg := testConfig(t)
	cfg.PublishMode = config.PublishExplicit

	writeTestFile(t, filepath.Join(cfg.ContentDir, "public.md"), "---\npublish: true\n---\n# Public\n")
	writeTestFile(t, filepath.Join(cfg.ContentDir, "draft.md"), "# Draft\n")
	writeTestFile(t, filepath.Join(cfg.ContentDir, "Drafts", "wip.md"), "---\npublish: false\n---\n# WIP\n")

	res, err := NewGenerator(cfg).Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Pages != 1 {
		t.Errorf("pages = %d, want 1", res.Pages)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "draft.html")); err == nil {
		t.Error("unpublished page rendered")
	}

	html := readOutput(t, cfg.OutputDir, "public.html")
	if strings.Contains(html, `data-key="Drafts"`) {
		t.Error("directory without published pages listed in explorer")
	}
}

func TestGenerateTemplateOverrides(t *testing.T) {
	cfg := testConfig(t)

	writeTestFile(t, filepath.Join(cfg.ContentDir, "index.md"), "# Home\n")
	writeTestFile(t, filepath.Join(cfg.TemplateDir, "layout.html"), `<html><body><main>{{.Title}}|{{.Explorer}}|{{.Content}}</main></body></html>`)
	writeTestFile(t, filepath.Join(cfg.TemplateDir, "base.css"), "body{color:red}")

	if _, err := NewGenerator(cfg).Generate(context.Background()); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if got := readOutput(t, cfg.OutputDir, "base.css"); got != "body{color:red}" {
		t.Errorf("base.css = %q, want override", got)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "layout.html")); err == nil {
		t.Error("layout.html copied to output")
	}
	if html := readOutput(t, cfg.OutputDir, "index.html"); !strings.HasPrefix(html, "<html><body><main>Home|") {
		t.Errorf("custom layout not used: %q", html)
	}
}

func TestGenerateRejectsBrokenScriptOverride(t *testing.T) {
	cfg := testConfig(t)

	writeTestFile(t, filepath.Join(cfg.ContentDir, "index.md"), "# Home\n")
	writeTestFile(t, filepath.Join(cfg.TemplateDir, "blaze-scripts", "explorer.js"), "function ( {")

	_, err := NewGenerator(cfg).Generate(context.Background())
	if err == nil || !strings.Contains(err.Error(), "explorer.js") {
		t.Errorf("err = %v, want a syntax error naming explorer.js", err)
	}
}

func TestGenerateSlugCollision(t *testing.T) {
	cfg := testConfig(t)

	writeTestFile(t, filepath.Join(cfg.ContentDir, "My Page.md"), "# A\n")
	writeTestFile(t, filepath.Join(cfg.ContentDir, "my-page.md"), "# B\n")

	if _, err := NewGenerator(cfg).Generate(context.Background()); err == nil {
		t.Error("expected an error for two sources with the same output path")
	}
}

func TestGenerateIncremental(t *testing.T) {
	cfg := testConfig(t)
	g := newCachedGenerator(t, cfg)
	ctx := context.Background()

	writeTestFile(t, filepath.Join(cfg.ContentDir, "a.md"), "# A\n")
	writeTestFile(t, filepath.Join(cfg.ContentDir, "b.md"), "# B\n")

	res, err := g.Generate(ctx)
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	if res.Rendered != 2 || res.Skipped != 0 {
		t.Errorf("first build = %+v", res)
	}

	res, err = g.Generate(ctx)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if res.Rendered != 0 || res.Skipped != 2 {
		t.Errorf("unchanged build = %+v, want everything skipped", res)
	}

	writeTestFile(t, filepath.Join(cfg.ContentDir, "a.md"), "# A\n\nchanged\n")
	res, err = g.Generate(ctx)
	if err != nil {
		t.Fatalf("third build: %v", err)
	}
	if res.Rendered != 1 || res.Skipped != 1 {
		t.Errorf("after edit = %+v, want 1 rendered 1 skipped", res)
	}

	if err := os.Remove(filepath.Join(cfg.ContentDir, "b.md")); err != nil {
		t.Fatal(err)
	}
	res, err = g.Generate(ctx)
	if err != nil {
		t.Fatalf("fourth build: %v", err)
	}
	if res.Pruned != 1 {
		t.Errorf("pruned = %d, want 1", res.Pruned)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "b.html")); err == nil {
		t.Error("output of deleted page still present")
	}
	// Removing b changes a's explorer, so a is rendered again.
	if res.Rendered != 1 {
		t.Errorf("rendered = %d, want 1", res.Rendered)
	}

	last, err := g.Cache.LastBuild(ctx)
	if err != nil || last == nil {
		t.Fatalf("LastBuild = %v, %v", last, err)
	}
	if last.ID != res.BuildID || last.Pruned != 1 {
		t.Errorf("last build = %+v, want id %s with 1 pruned", last, res.BuildID)
	}
}

func TestGenerateRenameWithSameSlug(t *testing.T) {
	cfg := testConfig(t)
	g := newCachedGenerator(t, cfg)
	ctx := context.Background()

	oldPath := filepath.Join(cfg.ContentDir, "Foo Bar.md")
	writeTestFile(t, oldPath, "# Foo\n")
	if _, err := g.Generate(ctx); err != nil {
		t.Fatalf("first build: %v", err)
	}

	if err := os.Rename(oldPath, filepath.Join(cfg.ContentDir, "foo-bar.md")); err != nil {
		t.Fatal(err)
	}
	res, err := g.Generate(ctx)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if res.Pages != 1 || res.Pruned != 1 {
		t.Errorf("after rename = %+v, want 1 page and 1 pruned record", res)
	}
	if got := readOutput(t, cfg.OutputDir, "foo-bar.html"); !strings.Contains(got, "Foo") {
		t.Errorf("foo-bar.html lost its content:\n%s", got)
	}
}

func TestGeneratePruneKeepsStaticTakeover(t *testing.T) {
	cfg := testConfig(t)
	g := newCachedGenerator(t, cfg)
	ctx := context.Background()

	writeTestFile(t, filepath.Join(cfg.ContentDir, "index.md"), "# Home\n")
	writeTestFile(t, filepath.Join(cfg.ContentDir, "logo.md"), "# Logo\n")
	if _, err := g.Generate(ctx); err != nil {
		t.Fatalf("first build: %v", err)
	}

	if err := os.Remove(filepath.Join(cfg.ContentDir, "logo.md")); err != nil {
		t.Fatal(err)
	}
	writeTestFile(t, filepath.Join(cfg.ContentDir, "logo.html"), "<p>static logo</p>")
	res, err := g.Generate(ctx)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if res.Pruned != 1 || res.Copied != 1 {
		t.Errorf("after takeover = %+v, want 1 pruned and 1 copied", res)
	}
	if got := readOutput(t, cfg.OutputDir, "logo.html"); got != "<p>static logo</p>" {
		t.Errorf("logo.html = %q, want the static file", got)
	}
}

func TestGenerateKeepsOutputClaimedByAnotherPage(t *testing.T) {
	cfg := testConfig(t)
	g := newCachedGenerator(t, cfg)
	ctx := context.Background()

	writeTestFile(t, filepath.Join(cfg.ContentDir, "a.md"), "# A\n")
	writeTestFile(t, filepath.Join(cfg.ContentDir, "b.md"), "# B\n")
	if _, err := g.Generate(ctx); err != nil {
		t.Fatalf("first build: %v", err)
	}

	// a.md was last written to b.html, which b.md owns now.
	err := g.Cache.Put(ctx, buildcache.Page{SourcePath: "a.md", OutputPath: "b.html", Hash: "old"})
	if err != nil {
		t.Fatal(err)
	}
	res, err := g.Generate(ctx)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if res.Rendered != 1 || res.Skipped != 1 {
		t.Errorf("second build = %+v, want a rendered and b skipped", res)
	}
	if got := readOutput(t, cfg.OutputDir, "b.html"); !strings.Contains(got, "<h1") || !strings.Contains(got, "B") {
		t.Errorf("b.html was removed or replaced:\n%s", got)
	}
	readOutput(t, cfg.OutputDir, "a.html")
}

func TestGenerateRerendersMissingOutput(t *testing.T) {
	cfg := testConfig(t)
	g := newCachedGenerator(t, cfg)
	ctx := context.Background()

	writeTestFile(t, filepath.Join(cfg.ContentDir, "a.md"), "# A\n")
	if _, err := g.Generate(ctx); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(cfg.OutputDir, "a.html")); err != nil {
		t.Fatal(err)
	}

	res, err := g.Generate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Rendered != 1 {
		t.Errorf("rendered = %d, want 1", res.Rendered)
	}
}

func TestCheck(t *testing.T) {
	cfg := testConfig(t)
	writeTestFile(t, filepath.Join(cfg.ContentDir, "a.md"), "# A\n")
	writeTestFile(t, filepath.Join(cfg.ContentDir, "b", "c.md"), "# C\n")

	n, err := NewGenerator(cfg).Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if n != 2 {
		t.Errorf("pages = %d, want 2", n)
	}
	if _, err := os.Stat(cfg.OutputDir); err == nil {
		t.Error("Check wrote the output dir")
	}

	writeTestFile(t, filepath.Join(cfg.TemplateDir, "layout.html"), "{{.Title")
	if _, err := NewGenerator(cfg).Check(context.Background()); err == nil {
		t.Error("expected a layout parse error")
	}
}
