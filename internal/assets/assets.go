// Package assets holds the default layout, stylesheet, and browser
// scripts shipped with every site.
package assets

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/dop251/goja"
)

//go:embed files
var embedded embed.FS

// LayoutName is the template file looked up in a site's template dir.
const LayoutName = "layout.html"

// ScriptDir is the output subdirectory holding the browser scripts.
const ScriptDir = "blaze-scripts"

// ChromaCSSName is the stylesheet generated for code highlighting.
const ChromaCSSName = "chroma.css"

func files() fs.FS {
	sub, err := fs.Sub(embedded, "files")
	if err != nil {
		panic(err)
	}
	return sub
}

// Layout returns the embedded default page layout.
func Layout() []byte {
	data, err := fs.ReadFile(files(), LayoutName)
	if err != nil {
		panic(err)
	}
	return data
}

// Scripts returns the embedded browser scripts keyed by their output path,
// e.g. "blaze-scripts/explorer.js".
func Scripts() map[string][]byte {
	out := make(map[string][]byte)
	entries, err := fs.ReadDir(files(), ScriptDir)
	if err != nil {
		panic(err)
	}
	for _, e := range entries {
		name := path.Join(ScriptDir, e.Name())
		data, err := fs.ReadFile(files(), name)
		if err != nil {
			panic(err)
		}
		out[name] = data
	}
	return out
}

// Script returns one embedded script by output path.
func Script(name string) ([]byte, error) {
	return fs.ReadFile(files(), name)
}

// Write copies every embedded asset except the layout into outputDir and
// generates the highlighting stylesheet for style. It returns the relative
// paths written.
func Write(outputDir, style string) ([]string, error) {
	var written []string

	err := fs.WalkDir(files(), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || p == LayoutName {
			return nil
		}
		data, err := fs.ReadFile(files(), p)
		if err != nil {
			return err
		}
		if err := writeFile(filepath.Join(outputDir, filepath.FromSlash(p)), data); err != nil {
			return err
		}
		written = append(written, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("writing assets: %w", err)
	}

	css, err := ChromaCSS(style)
	if err != nil {
		return nil, err
	}
	if err := writeFile(filepath.Join(outputDir, ChromaCSSName), css); err != nil {
		return nil, fmt.Errorf("writing %s: %w", ChromaCSSName, err)
	}
	written = append(written, ChromaCSSName)

	sort.Strings(written)
	return written, nil
}

// ChromaCSS renders the class-based stylesheet for a chroma style. Unknown
// style names fall back to chroma's default.
func ChromaCSS(style string) ([]byte, error) {
	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&buf, styles.Get(style)); err != nil {
		return nil, fmt.Errorf("generating highlight css: %w", err)
	}
	return buf.Bytes(), nil
}

// CheckScripts compiles each script and reports every syntax error.
func CheckScripts(scripts map[string][]byte) error {
	names := make([]string, 0, len(scripts))
	for name := range scripts {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if _, err := goja.Compile(name, string(scripts[name]), false); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func writeFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}
