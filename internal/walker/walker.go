package walker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File holds metadata about a single content file discovered during traversal.
type File struct {
	Path        string // Absolute path on disk.
	RelPath     string // Slash-separated path relative to the root directory.
	Size        int64  // File size in bytes.
	ContentHash string // SHA-256 hex digest of the file content.
}

// IsMarkdown reports whether the file is a markdown page.
func (f File) IsMarkdown() bool {
	return strings.EqualFold(filepath.Ext(f.RelPath), ".md")
}

// Config controls the behaviour of the Walk function.
type Config struct {
	RootDir string   // Root directory to walk.
	Ignore  []string // Patterns — matching files and directories are skipped.
}

// Walk traverses the directory tree rooted at cfg.RootDir and returns every
// regular file that is not ignored, sorted by relative path. Ignored
// directories are pruned without descending into them.
func Walk(cfg Config) ([]File, error) {
	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}

	var files []File

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == root {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if shouldExcludeDir(d.Name()) || IsIgnored(relPath, cfg.Ignore) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || IsIgnored(relPath, cfg.Ignore) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		hash, err := HashFile(path)
		if err != nil {
			return err
		}

		files = append(files, File{
			Path:        path,
			RelPath:     relPath,
			Size:        info.Size(),
			ContentHash: hash,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walker: traversal: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// HashFile computes the SHA-256 digest of the given file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
