// Package archive builds Walk abstraction on top of "archive/zip". It is
// used to look into previously written bundles.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrNoMatch is returned by ReadFirst when nothing in archive matches.
var ErrNoMatch = errors.New("no matching file in archive")

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The archive argument contains path to archive passed to
// Walk. If an error is returned, processing stops.
type WalkFunc func(archive string, file *zip.File) error

// Matcher selects archive entries by their full name.
type Matcher func(name string) bool

// Base matches entries with last path element matching shell pattern,
// regardless of directory.
func Base(pattern string) Matcher {
	return func(name string) bool {
		ok, err := path.Match(pattern, path.Base(name))
		return err == nil && ok
	}
}

// Walk walks the all files in the archive which satisfy match condition,
// calling walkFn for each item in archive order. Entries with path traversal
// components ("..") or absolute paths make whole archive rejected.
func Walk(archive string, match Matcher, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if !f.FileInfo().IsDir() && (match == nil || match(name)) {
			if err := walkFn(archive, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadFirst returns name and content of the shallowest matching entry.
// Entries larger than limit (when positive) are rejected.
func ReadFirst(archive string, match Matcher, limit int64) (string, []byte, error) {
	var found *zip.File
	err := Walk(archive, match, func(_ string, f *zip.File) error {
		if found == nil || depth(f.Name) < depth(found.Name) {
			found = f
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	if found == nil {
		return "", nil, ErrNoMatch
	}
	if limit > 0 && found.UncompressedSize64 > uint64(limit) {
		return "", nil, fmt.Errorf("zip entry %q is too large (%d bytes)", found.Name, found.UncompressedSize64)
	}

	rc, err := found.Open()
	if err != nil {
		return "", nil, fmt.Errorf("zip entry %q: %w", found.Name, err)
	}
	defer rc.Close()

	var rdr io.Reader = rc
	if limit > 0 {
		rdr = io.LimitReader(rc, limit)
	}
	data, err := io.ReadAll(rdr)
	if err != nil {
		return "", nil, fmt.Errorf("zip entry %q: %w", found.Name, err)
	}
	return found.Name, data, nil
}

func depth(name string) int {
	return strings.Count(strings.Trim(name, "/"), "/")
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
