package site

import (
	"fmt"
	"html/template"
	"path"
	"sort"
	"strings"
)

// FileTree is a node in the explorer tree shown in the sidebar.
type FileTree struct {
	Name     string
	Title    string // Display name; the page title for files.
	Path     string // Source path relative to the content dir. Directories use it as their data-key.
	Output   string // Output path of a page, e.g. "guides/setup.html".
	IsDir    bool
	Children []*FileTree
}

// TreeEntry is one published page placed in the tree.
type TreeEntry struct {
	SourcePath string
	OutputPath string
	Title      string
}

// BuildTree constructs the explorer tree from the published pages.
// Directories only appear when they contain at least one page.
func BuildTree(entries []TreeEntry) *FileTree {
	root := &FileTree{Name: "", IsDir: true}

	for _, e := range entries {
		parts := strings.Split(e.SourcePath, "/")
		current := root
		for i, part := range parts[:len(parts)-1] {
			current = current.dir(part, strings.Join(parts[:i+1], "/"))
		}
		name := parts[len(parts)-1]
		current.Children = append(current.Children, &FileTree{
			Name:   name,
			Title:  e.Title,
			Path:   e.SourcePath,
			Output: e.OutputPath,
		})
	}

	sortTree(root)
	return root
}

func (t *FileTree) dir(name, dirPath string) *FileTree {
	for _, child := range t.Children {
		if child.IsDir && child.Name == name {
			return child
		}
	}
	node := &FileTree{Name: name, Title: name, Path: dirPath, IsDir: true}
	t.Children = append(t.Children, node)
	return node
}

// sortTree recursively sorts tree children: directories first, then files, alphabetically.
func sortTree(node *FileTree) {
	sort.Slice(node.Children, func(i, j int) bool {
		if node.Children[i].IsDir != node.Children[j].IsDir {
			return node.Children[i].IsDir
		}
		return strings.ToLower(node.Children[i].Name) < strings.ToLower(node.Children[j].Name)
	})
	for _, child := range node.Children {
		if child.IsDir {
			sortTree(child)
		}
	}
}

// ToHTML renders the tree as nested lists. Directories become
// <details data-key="..."> elements, open when they contain activePath.
// basePath is the relative prefix back to the output root.
func (t *FileTree) ToHTML(activePath, basePath string) string {
	ancestors := activeAncestors(activePath)

	var b strings.Builder
	renderChildren(&b, t, activePath, basePath, ancestors)
	return b.String()
}

// activeAncestors returns the directory paths containing activePath.
// For "a/b/page.md" it returns {"a", "a/b"}.
func activeAncestors(activePath string) map[string]bool {
	ancestors := make(map[string]bool)
	for dir := path.Dir(activePath); dir != "." && dir != "/" && dir != ""; dir = path.Dir(dir) {
		ancestors[dir] = true
	}
	return ancestors
}

func renderChildren(b *strings.Builder, node *FileTree, activePath, basePath string, ancestors map[string]bool) {
	b.WriteString("<ul>\n")
	for _, child := range node.Children {
		if child.IsDir {
			open := ""
			if ancestors[child.Path] {
				open = " open"
			}
			fmt.Fprintf(b, `<li class="dir"><details data-key="%s"%s><summary>%s</summary>`+"\n",
				template.HTMLEscapeString(child.Path), open, template.HTMLEscapeString(child.Title))
			renderChildren(b, child, activePath, basePath, ancestors)
			b.WriteString("</details></li>\n")
			continue
		}

		active := ""
		if child.Path == activePath {
			active = ` class="active"`
		}
		fmt.Fprintf(b, `<li class="file"><a href="%s"%s>%s</a></li>`+"\n",
			template.HTMLEscapeString(basePath+child.Output), active, template.HTMLEscapeString(child.Title))
	}
	b.WriteString("</ul>\n")
}

// basePathFor returns the "../" prefix leading from outputPath back to the
// output root.
func basePathFor(outputPath string) string {
	return strings.Repeat("../", strings.Count(outputPath, "/"))
}
