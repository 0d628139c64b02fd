package site

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestUnder(t *testing.T) {
	dirs := []string{filepath.FromSlash("/site/public")}
	tests := []struct {
		p    string
		want bool
	}{
		{"/site/public", true},
		{"/site/public/index.html", true},
		{"/site/publication.md", false},
		{"/site/content/a.md", false},
	}
	for _, tt := range tests {
		if got := under(filepath.FromSlash(tt.p), dirs); got != tt.want {
			t.Errorf("under(%q) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestWatcherReportsChanges(t *testing.T) {
	root := t.TempDir()
	content := filepath.Join(root, "content")
	output := filepath.Join(content, "public")
	cfgFile := filepath.Join(root, "blaze.yml")
	writeTestFile(t, filepath.Join(content, "a.md"), "# A\n")
	writeTestFile(t, filepath.Join(output, "a.html"), "")
	writeTestFile(t, cfgFile, "page_title: x\n")

	w := &Watcher{
		Roots:    []string{content},
		Files:    []string{cfgFile},
		Exclude:  []string{output},
		Debounce: 20 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan []string, 10)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(paths []string) { changes <- paths }) }()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	writeTestFile(t, filepath.Join(output, "a.html"), "changed")
	if err := os.WriteFile(filepath.Join(content, "a.md"), []byte("# A2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changes:
		for _, p := range paths {
			if under(p, absAll([]string{output})) {
				t.Errorf("excluded path reported: %s", p)
			}
		}
		if len(paths) == 0 {
			t.Error("empty change set")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}

	if err := os.WriteFile(cfgFile, []byte("page_title: y\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case paths := <-changes:
		want, _ := filepath.Abs(cfgFile)
		found := false
		for _, p := range paths {
			if p == want {
				found = true
			}
		}
		if !found {
			t.Errorf("config change not reported: %v", paths)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no config change reported")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run: %v", err)
	}
}
