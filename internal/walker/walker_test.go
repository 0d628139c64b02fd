package walker

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func relPaths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	return out
}

func TestWalk_BasicTraversal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "index.md"), "# Home")
	writeFile(t, filepath.Join(dir, "guides", "intro.md"), "# Intro")
	writeFile(t, filepath.Join(dir, "guides", "img", "logo.png"), "png")
	writeFile(t, filepath.Join(dir, ".git", "HEAD"), "ref")
	writeFile(t, filepath.Join(dir, ".obsidian", "app.json"), "{}")

	files, err := Walk(Config{RootDir: dir})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	got := relPaths(files)
	want := []string{"guides/img/logo.png", "guides/intro.md", "index.md"}
	if len(got) != len(want) {
		t.Fatalf("Walk() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("file[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWalk_FileFields(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.md"), "hello")

	files, err := Walk(Config{RootDir: dir})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("files = %d, want 1", len(files))
	}

	f := files[0]
	if !filepath.IsAbs(f.Path) {
		t.Errorf("Path %q should be absolute", f.Path)
	}
	if f.Size != 5 {
		t.Errorf("Size = %d, want 5", f.Size)
	}
	// sha256("hello")
	if f.ContentHash != "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824" {
		t.Errorf("ContentHash = %q", f.ContentHash)
	}
	if !f.IsMarkdown() {
		t.Error("a.md should be markdown")
	}
}

func TestWalk_IgnorePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "index.md"), "# Home")
	writeFile(t, filepath.Join(dir, "private", "secret.md"), "x")
	writeFile(t, filepath.Join(dir, "notes", "draft.tmp"), "x")
	writeFile(t, filepath.Join(dir, "templates", "daily.md"), "x")

	files, err := Walk(Config{RootDir: dir, Ignore: []string{"private", "*.tmp", "templates/**"}})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	got := relPaths(files)
	if len(got) != 1 || got[0] != "index.md" {
		t.Errorf("Walk() = %v, want [index.md]", got)
	}
}

func TestWalk_MissingRoot(t *testing.T) {
	_, err := Walk(Config{RootDir: filepath.Join(t.TempDir(), "missing")})
	if err == nil {
		t.Error("expected error for missing root")
	}
}

func TestIsIgnored(t *testing.T) {
	tests := []struct {
		path     string
		patterns []string
		want     bool
	}{
		{"a/b/c.md", nil, false},
		{"private/x.md", []string{"private"}, true},
		{"a/private/x.md", []string{"private"}, true},
		{"a/privateer/x.md", []string{"private"}, false},
		{"draft.tmp", []string{"*.tmp"}, true},
		{"deep/dir/draft.tmp", []string{"*.tmp"}, true},
		{"templates/daily.md", []string{"templates/**"}, true},
		{"other/templates/daily.md", []string{"templates/**"}, false},
		{"x.md", []string{"  "}, false},
	}
	for _, tt := range tests {
		if got := IsIgnored(tt.path, tt.patterns); got != tt.want {
			t.Errorf("IsIgnored(%q, %v) = %v, want %v", tt.path, tt.patterns, got, tt.want)
		}
	}
}
