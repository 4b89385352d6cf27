// Package sandbox keeps destructive filesystem operations inside a module
// directory and writes files atomically.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolve returns the real path of target and verifies it lies strictly
// inside root. Symlinks in both paths are followed; target need not exist.
// A relative target is taken relative to root.
func Resolve(root, target string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolving root symlinks: %w", err)
	}

	candidate := target
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(absRoot, candidate)
	}

	resolved, err := resolveExisting(filepath.Clean(candidate))
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", target, err)
	}

	if !strings.HasPrefix(resolved, realRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("path '%s' resolves to '%s' which is outside '%s'", target, resolved, realRoot)
	}
	return resolved, nil
}

// resolveExisting follows symlinks for the longest existing prefix of path
// and appends the rest unchanged.
func resolveExisting(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}

	dir, base := filepath.Dir(path), filepath.Base(path)
	if dir == path {
		return path, nil
	}

	resolvedDir, err := resolveExisting(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedDir, base), nil
}

// ClearDir removes the contents of dir, keeping dir itself. It refuses
// when dir does not resolve to a path inside root.
func ClearDir(root, dir string) error {
	resolved, err := Resolve(root, dir)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(resolved, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile writes content to path through a temp file in the same
// directory and a rename, so readers never see a partial file.
func WriteFile(path string, content []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".modsync-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", path, err)
	}

	success = true
	return nil
}
