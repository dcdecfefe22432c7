// Package walker discovers dataset files under a directory.
package walker

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMaxFileSize is the maximum dataset file size to process (16 MB).
const DefaultMaxFileSize int64 = 16 << 20

// FileInfo describes one dataset file found under the root.
type FileInfo struct {
	Path        string // absolute
	RelPath     string // relative to the root, slash separated
	Size        int64
	Format      Format
	ContentHash string // SHA-256, hex
}

// WalkerConfig controls Walk.
type WalkerConfig struct {
	RootDir     string
	Include     []string // doublestar globs; empty admits everything
	Exclude     []string
	MaxFileSize int64 // 0 selects DefaultMaxFileSize
}

// Walk returns every dataset file under config.RootDir that passes the
// filters, sorted by relative path. Files without a dataset extension,
// oversized or binary files and files ignored by the root .gitignore are
// skipped; unreadable entries are skipped rather than failing the walk.
func Walk(config WalkerConfig) ([]FileInfo, error) {
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("walker: %w", err)
	}

	filter, err := NewFilter(config.Include, config.Exclude)
	if err != nil {
		return nil, fmt.Errorf("walker: %w", err)
	}
	filter.gitignore = loadGitignore(filepath.Join(root, ".gitignore"))

	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	var files []FileInfo
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		switch {
		case walkErr != nil:
			return nil
		case d.IsDir():
			if path != root && isExcludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		case !d.Type().IsRegular():
			return nil
		}

		format := DetectFormat(d.Name())
		if format == FormatUnknown {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !filter.Allows(rel) {
			return nil
		}

		fi, ok := inspect(path, d, maxSize)
		if !ok {
			return nil
		}
		fi.RelPath = rel
		fi.Format = format
		files = append(files, fi)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walker: traversal: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// inspect reads the file once, rejecting it when it is too large or holds
// a NUL byte in its first 512 bytes, and hashes the content.
func inspect(path string, d fs.DirEntry, maxSize int64) (FileInfo, bool) {
	info, err := d.Info()
	if err != nil || info.Size() > maxSize {
		return FileInfo{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return FileInfo{}, false
	}
	if bytes.IndexByte(data[:min(len(data), 512)], 0) >= 0 {
		return FileInfo{}, false
	}
	sum := sha256.Sum256(data)
	return FileInfo{Path: path, Size: info.Size(), ContentHash: hex.EncodeToString(sum[:])}, true
}

func loadGitignore(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns
}
