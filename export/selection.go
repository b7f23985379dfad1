// Package export writes compiled assets out as bundles: single HTML file,
// zip archive or directory, on local disk or S3.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"mcsave/archive"
)

const (
	ManifestName = "manifest.json"

	maxManifestSize = 16 << 20
)

// Selection is what to export and how. It is explicit value so the same run
// could be repeated from file or from previously written bundle.
type Selection struct {
	Stack         string  `yaml:"stack,omitempty" json:"stack,omitempty"`
	AssetIDs      []int64 `yaml:"assets" json:"assets"`
	ResolveBlocks bool    `yaml:"resolveBlocks" json:"resolveBlocks"`
	IncludeImages bool    `yaml:"includeImages" json:"includeImages"`
}

// Normalize drops duplicate ids keeping order of first appearance.
func (s *Selection) Normalize() {
	seen := make(map[int64]bool, len(s.AssetIDs))
	s.AssetIDs = slices.DeleteFunc(s.AssetIDs, func(id int64) bool {
		if seen[id] {
			return true
		}
		seen[id] = true
		return false
	})
}

func (s *Selection) Validate() error {
	if len(s.AssetIDs) == 0 {
		return errors.New("no assets selected")
	}
	for _, id := range s.AssetIDs {
		if id <= 0 {
			return fmt.Errorf("invalid asset id %d", id)
		}
	}
	return nil
}

// LoadSelection reads selection from YAML or JSON file.
func LoadSelection(path string) (*Selection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read selection: %w", err)
	}
	return decodeSelection(data)
}

func decodeSelection(data []byte) (*Selection, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sel Selection
	if err := dec.Decode(&sel); err != nil {
		return nil, fmt.Errorf("unable to decode selection: %w", err)
	}
	sel.Normalize()
	return &sel, sel.Validate()
}

// Save writes selection as YAML.
func (s *Selection) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("unable to encode selection: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("unable to write selection: %w", err)
	}
	return nil
}

// SelectionFromBundle restores selection from manifest of previously written
// bundle. Path could point to zip archive, bundle directory or manifest
// itself.
func SelectionFromBundle(path string) (*Selection, error) {
	m, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	sel := m.Selection
	sel.Normalize()
	return &sel, sel.Validate()
}

// ReadManifest finds and decodes bundle manifest.
func ReadManifest(path string) (*Manifest, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch {
	case fi.IsDir():
		data, err = readManifestFromDir(path)
	case strings.EqualFold(filepath.Ext(path), ".zip"):
		_, data, err = archive.ReadFirst(path, archive.Base(ManifestName), maxManifestSize)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read manifest from %s: %w", path, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unable to decode manifest from %s: %w", path, err)
	}
	return &m, nil
}

func readManifestFromDir(dir string) ([]byte, error) {
	var found string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == ManifestName {
			found = p
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, archive.ErrNoMatch
	}
	return os.ReadFile(found)
}
