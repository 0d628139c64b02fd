package site

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"unicode/utf8"
)

// SearchEntry represents a single searchable page.
type SearchEntry struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Content string `json:"content"`
}

const maxSearchContent = 2000

// newSearchEntry extracts summary and content from a page's markdown source.
// Front matter, headings, and fenced code are left out of the summary.
func newSearchEntry(outputPath, title string, source []byte) SearchEntry {
	entry := SearchEntry{Path: outputPath, Title: title}

	scanner := bufio.NewScanner(bytes.NewReader(source))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	inFrontMatter := false
	inFence := false
	for i := 0; scanner.Scan(); i++ {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if i == 0 && trimmed == "---" {
			inFrontMatter = true
			continue
		}
		if inFrontMatter {
			if trimmed == "---" {
				inFrontMatter = false
			}
			continue
		}
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if trimmed == "" {
			continue
		}
		if !inFence && entry.Summary == "" && !strings.HasPrefix(trimmed, "#") {
			entry.Summary = strings.TrimLeft(trimmed, "> ")
		}
		lines = append(lines, trimmed)
	}

	content := strings.Join(lines, " ")
	entry.Content = truncate(content, maxSearchContent)
	return entry
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// WriteSearchIndex writes the search index as JSON to the given path.
func WriteSearchIndex(entries []SearchEntry, outputPath string) error {
	if entries == nil {
		entries = []SearchEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0o644)
}
