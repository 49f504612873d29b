// Package fileutil provides file system utility functions.
package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FindFileCaseInsensitive searches for a file with the given name in the specified directory.
// The search is case-insensitive, which is useful for assets authored on case-insensitive
// file systems.
//
// Example:
//
//	path, err := FindFileCaseInsensitive("/path/to/dir", "Cat.PNG")
//	// Will find "cat.png", "CAT.PNG", "Cat.png", etc.
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	if name, ok := matchEntry(entries, filename, false); ok {
		return filepath.Join(dir, name), nil
	}

	return "", fmt.Errorf("%w: %s (searched in %s)", fs.ErrNotExist, filename, dir)
}

// ResolvePathFS resolves name inside fsys, matching every path segment
// case-insensitively. The returned path is the slash-separated path that
// actually exists in fsys.
func ResolvePathFS(fsys fs.FS, name string) (string, error) {
	clean := CleanName(name)

	// まず直接アクセスを試みる
	if _, err := fs.Stat(fsys, clean); err == nil {
		return clean, nil
	}

	dir := "."
	segments := strings.Split(clean, "/")
	for i, seg := range segments {
		entries, err := fs.ReadDir(fsys, dir)
		if err != nil {
			return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
		}

		last := i == len(segments)-1
		match, ok := matchEntry(entries, seg, !last)
		if !ok {
			return "", fmt.Errorf("%w: %s", fs.ErrNotExist, name)
		}
		dir = path.Join(dir, match)
	}

	return dir, nil
}

// CleanName normalises an asset name into a slash-separated path relative to
// the root of a file system.
func CleanName(name string) string {
	cleanName := strings.ReplaceAll(name, "\\", "/")
	cleanName = strings.TrimLeft(cleanName, "/")
	cleanName = path.Clean(cleanName)
	if cleanName == "" {
		return "."
	}
	return cleanName
}

// matchEntry はディレクトリエントリから大文字小文字を無視して名前が一致するものを探す
func matchEntry(entries []fs.DirEntry, name string, wantDir bool) (string, bool) {
	for _, entry := range entries {
		if entry.IsDir() != wantDir {
			continue
		}
		if strings.EqualFold(entry.Name(), name) {
			return entry.Name(), true
		}
	}
	return "", false
}
