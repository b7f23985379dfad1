package export

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"mcsave/content"
)

// Manifest describes bundle content.
type Manifest struct {
	RunID     string          `json:"runId"`
	Tool      string          `json:"tool"`
	Stack     string          `json:"stack,omitempty"`
	Created   time.Time       `json:"created"`
	Selection Selection       `json:"selection"`
	Assets    []ManifestEntry `json:"assets"`
	Failed    []FailedEntry   `json:"failed,omitempty"`
}

type ManifestEntry struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	CustomerKey string              `json:"customerKey,omitempty"`
	Files       []string            `json:"files"`
	Images      []ManifestImage     `json:"images,omitempty"`
	Unresolved  []content.Reference `json:"unresolved,omitempty"`
}

type ManifestImage struct {
	File string `json:"file"`
	URL  string `json:"url"`
}

type FailedEntry struct {
	ID    int64  `json:"id"`
	Error string `json:"error"`
}

func newManifest(tool string, sel *Selection, now time.Time) *Manifest {
	return &Manifest{
		RunID:     uuid.NewString(),
		Tool:      tool,
		Stack:     sel.Stack,
		Created:   now.UTC(),
		Selection: *sel,
	}
}

func (m *Manifest) add(ca *content.CompiledAsset, files []string, images []ManifestImage) {
	m.Assets = append(m.Assets, ManifestEntry{
		ID:          ca.ID,
		Name:        ca.Name,
		CustomerKey: ca.CustomerKey,
		Files:       files,
		Images:      images,
		Unresolved:  ca.Unresolved,
	})
}

func (m *Manifest) fail(id int64, err error) {
	m.Failed = append(m.Failed, FailedEntry{ID: id, Error: err.Error()})
}

func (m *Manifest) encode() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}
