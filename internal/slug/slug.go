// Package slug turns content paths into URL-safe output paths.
package slug

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Make lowercases s and collapses every run of non-alphanumerics into a
// single hyphen.
func Make(s string) string {
	s = strings.ToLower(s)
	s = reNonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Path slugifies every segment of a slash or OS separated directory path.
// "." and "" map to "".
func Path(dir string) string {
	dir = filepath.ToSlash(dir)
	if dir == "." || dir == "" {
		return ""
	}
	parts := strings.Split(dir, "/")
	out := parts[:0]
	for _, p := range parts {
		if s := Make(p); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "/")
}

// File returns the slug of a file's base name without its extension.
func File(p string) string {
	base := path.Base(filepath.ToSlash(p))
	return Make(strings.TrimSuffix(base, path.Ext(base)))
}

// HTMLPath maps a content-relative markdown path to its output path,
// e.g. "Guides/Getting Started.md" -> "guides/getting-started.html".
func HTMLPath(rel string) string {
	rel = filepath.ToSlash(rel)
	dir := Path(path.Dir(rel))
	name := File(rel) + ".html"
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
