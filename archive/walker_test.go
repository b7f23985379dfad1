package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

type entry struct {
	name    string
	content string
}

func makeZip(t *testing.T, entries []entry) string {
	t.Helper()

	zipPath := filepath.Join(t.TempDir(), "bundle.zip")
	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer zipFile.Close()

	w := zip.NewWriter(zipFile)
	for _, e := range entries {
		fw, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("Failed to create file %s in zip: %v", e.name, err)
		}
		if _, err := fw.Write([]byte(e.content)); err != nil {
			t.Fatalf("Failed to write content for %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip writer: %v", err)
	}
	return zipPath
}

var bundle = []entry{
	{"Welcome/Welcome.html", "<html>welcome</html>"},
	{"Welcome/images/logo.png", "png"},
	{"Promo/Promo.html", "<html>promo</html>"},
	{"Promo/manifest.json", `{"nested":true}`},
	{"manifest.json", `{"runId":"x"}`},
	{"Welcome/", ""},
}

func TestWalk(t *testing.T) {
	zipPath := makeZip(t, bundle)

	tests := []struct {
		name  string
		match Matcher
		want  []string
	}{
		{"base image", Base("*.png"), []string{"Welcome/images/logo.png"}},
		{"base pattern", Base("*.html"), []string{"Welcome/Welcome.html", "Promo/Promo.html"}},
		{"base exact", Base("manifest.json"), []string{"Promo/manifest.json", "manifest.json"}},
		{"no match", Base("*.md"), nil},
		{"all files", nil, []string{"Welcome/Welcome.html", "Welcome/images/logo.png", "Promo/Promo.html", "Promo/manifest.json", "manifest.json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var visited []string
			err := Walk(zipPath, tt.match, func(archive string, file *zip.File) error {
				if archive != zipPath {
					t.Errorf("archive = %s, want %s", archive, zipPath)
				}
				visited = append(visited, file.Name)
				return nil
			})
			if err != nil {
				t.Fatalf("Walk() error = %v", err)
			}
			if !slices.Equal(visited, tt.want) {
				t.Errorf("visited = %v, want %v", visited, tt.want)
			}
		})
	}
}

func TestWalk_EarlyTermination(t *testing.T) {
	zipPath := makeZip(t, bundle)
	stop := errors.New("stop")

	var count int
	err := Walk(zipPath, nil, func(string, *zip.File) error {
		count++
		if count == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("Walk() error = %v, want %v", err, stop)
	}
	if count != 2 {
		t.Errorf("visited %d files, want 2", count)
	}
}

func TestWalk_InvalidArchive(t *testing.T) {
	t.Run("nonexistent file", func(t *testing.T) {
		err := Walk(filepath.Join(t.TempDir(), "missing.zip"), nil, func(string, *zip.File) error { return nil })
		if err == nil {
			t.Error("Walk() expected error for nonexistent file")
		}
	})

	t.Run("invalid zip file", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "bad.zip")
		if err := os.WriteFile(p, []byte("not a zip"), 0644); err != nil {
			t.Fatal(err)
		}
		err := Walk(p, nil, func(string, *zip.File) error { return nil })
		if err == nil {
			t.Error("Walk() expected error for invalid zip")
		}
	})

	t.Run("path traversal", func(t *testing.T) {
		p := makeZip(t, []entry{{"ok.html", "x"}, {"../evil.html", "x"}})
		err := Walk(p, nil, func(string, *zip.File) error { return nil })
		if err == nil {
			t.Error("Walk() expected error for unsafe entry")
		}
	})
}

func TestReadFirst(t *testing.T) {
	zipPath := makeZip(t, bundle)

	name, data, err := ReadFirst(zipPath, Base("manifest.json"), 0)
	if err != nil {
		t.Fatalf("ReadFirst() error = %v", err)
	}
	if name != "manifest.json" || string(data) != `{"runId":"x"}` {
		t.Errorf("ReadFirst() = %q, %q; shallowest entry expected", name, data)
	}

	if _, _, err := ReadFirst(zipPath, Base("*.txt"), 0); !errors.Is(err, ErrNoMatch) {
		t.Errorf("ReadFirst() error = %v, want ErrNoMatch", err)
	}

	if _, _, err := ReadFirst(zipPath, Base("Welcome.html"), 4); err == nil {
		t.Error("ReadFirst() expected size limit error")
	}
}

func TestIsSafePath(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a/b.html", true},
		{"images/x..png", true},
		{"/etc/passwd", false},
		{`\windows`, false},
		{"a/../../b", false},
		{"..", false},
	}
	for _, tt := range tests {
		if got := isSafePath(tt.name); got != tt.want {
			t.Errorf("isSafePath(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
