package export

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"mcsave/config"
	"mcsave/content"
	"mcsave/session"
)

type fakeCompiler struct {
	assets map[int64]*content.CompiledAsset
	errs   map[int64]error
	panics map[int64]bool
	opts   []content.Options
}

func (f *fakeCompiler) CompileAsset(_ context.Context, id int64, opts content.Options) (*content.CompiledAsset, error) {
	f.opts = append(f.opts, opts)
	if f.panics[id] {
		panic("broken asset")
	}
	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	ca, ok := f.assets[id]
	if !ok {
		return nil, fmt.Errorf("asset %d not found", id)
	}
	return ca, nil
}

func newFakeCompiler(assets ...*content.CompiledAsset) *fakeCompiler {
	f := &fakeCompiler{
		assets: make(map[int64]*content.CompiledAsset),
		errs:   make(map[int64]error),
		panics: make(map[int64]bool),
	}
	for _, a := range assets {
		f.assets[a.ID] = a
	}
	return f
}

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestExporter(t *testing.T, compiler AssetCompiler, cfg config.ExportConfig, overwrite bool) (*Exporter, string) {
	t.Helper()
	dir := t.TempDir()
	sink, err := NewFSSink(dir, overwrite, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewFSSink() error = %v", err)
	}
	e := NewExporter(compiler, sink, &cfg, content.DefaultMaxDepth, nil, zaptest.NewLogger(t))
	e.now = func() time.Time { return testNow }
	return e, dir
}

func plainAsset(id int64, name string) *content.CompiledAsset {
	return &content.CompiledAsset{ID: id, Name: name, HTML: fmt.Sprintf("<html><body><h1>%s</h1></body></html>", name)}
}

func withImage(ca *content.CompiledAsset) *content.CompiledAsset {
	ca.HTML = `<img src="images/logo.png">`
	ca.Images = []content.ImageArtifact{{FileName: "logo.png", Data: []byte("png"), ContentType: "image/png", OriginalURL: "https://x/logo.png"}}
	return ca
}

func zipEntries(t *testing.T, name string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer r.Close()

	out := make(map[string]string)
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Open(%s) error = %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("ReadAll(%s) error = %v", f.Name, err)
		}
		out[f.Name] = string(data)
	}
	return out
}

func TestExport_SingleHTML(t *testing.T) {
	fc := newFakeCompiler(plainAsset(1, "Welcome"))
	e, dir := newTestExporter(t, fc, config.ExportConfig{Format: config.BundleFormatAuto, Manifest: true}, false)

	res, err := e.Export(context.Background(), &Selection{AssetIDs: []int64{1}, ResolveBlocks: true})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if res.Format != config.BundleFormatHtml {
		t.Errorf("format = %v, want html", res.Format)
	}

	data, err := os.ReadFile(filepath.Join(dir, "Welcome.html"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "<h1>Welcome</h1>") {
		t.Errorf("unexpected content %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, ManifestName)); !os.IsNotExist(err) {
		t.Error("single file export must not write manifest")
	}
	if len(fc.opts) != 1 || !fc.opts[0].ResolveBlocks || fc.opts[0].IncludeImages || fc.opts[0].MaxDepth != content.DefaultMaxDepth {
		t.Errorf("compile options = %+v", fc.opts)
	}
}

func TestExport_ZipWithImages(t *testing.T) {
	for _, fix := range []bool{false, true} {
		t.Run(fmt.Sprintf("fix_zip=%v", fix), func(t *testing.T) {
			fc := newFakeCompiler(withImage(plainAsset(1, "Welcome")), plainAsset(2, "Promo"))
			e, dir := newTestExporter(t, fc, config.ExportConfig{Format: config.BundleFormatAuto, Manifest: true, FixZip: fix}, false)

			sel := &Selection{Stack: "s7", AssetIDs: []int64{1, 2}, ResolveBlocks: true, IncludeImages: true}
			res, err := e.Export(context.Background(), sel)
			if err != nil {
				t.Fatalf("Export() error = %v", err)
			}

			zipName := filepath.Join(dir, "sfmc-assets-2026-05-01.zip")
			if !slices.Equal(res.Outputs, []string{zipName}) {
				t.Errorf("outputs = %v", res.Outputs)
			}

			entries := zipEntries(t, zipName)
			for _, name := range []string{"Welcome/Welcome.html", "Welcome/images/logo.png", "Promo.html", ManifestName} {
				if _, ok := entries[name]; !ok {
					t.Errorf("entry %s missing, have %v", name, entries)
				}
			}
			if entries["Welcome/images/logo.png"] != "png" {
				t.Errorf("image data = %q", entries["Welcome/images/logo.png"])
			}

			// manifest is readable back as selection
			restored, err := SelectionFromBundle(zipName)
			if err != nil {
				t.Fatalf("SelectionFromBundle() error = %v", err)
			}
			if restored.Stack != "s7" || !slices.Equal(restored.AssetIDs, []int64{1, 2}) || !restored.IncludeImages || !restored.ResolveBlocks {
				t.Errorf("restored selection = %+v", restored)
			}

			m, err := ReadManifest(zipName)
			if err != nil {
				t.Fatalf("ReadManifest() error = %v", err)
			}
			if len(m.RunID) == 0 || len(m.Assets) != 2 || m.Assets[0].Images[0].URL != "https://x/logo.png" {
				t.Errorf("manifest = %+v", m)
			}
		})
	}
}

func TestExport_Dir(t *testing.T) {
	unresolved := plainAsset(3, "Footer")
	unresolved.Unresolved = content.ExtractReferences(`%%=ContentBlockByKey("loop")=%%`)

	fc := newFakeCompiler(plainAsset(1, "Welcome"), unresolved)
	e, dir := newTestExporter(t, fc, config.ExportConfig{Format: config.BundleFormatDir, Manifest: true, Markdown: true}, false)

	if _, err := e.Export(context.Background(), &Selection{AssetIDs: []int64{1, 3}}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	root := filepath.Join(dir, "sfmc-assets-2026-05-01")
	for _, name := range []string{"Welcome.html", "Welcome.md", "Footer.html", "Footer.md", ManifestName} {
		if _, err := os.Stat(filepath.Join(root, name)); err != nil {
			t.Errorf("Stat(%s) error = %v", name, err)
		}
	}
	md, err := os.ReadFile(filepath.Join(root, "Welcome.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(md), "# Welcome") {
		t.Errorf("markdown = %q", md)
	}

	m, err := ReadManifest(root)
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}
	if len(m.Assets) != 2 || len(m.Assets[1].Unresolved) != 1 || m.Assets[1].Unresolved[0].Kind != content.KindByKey {
		t.Errorf("manifest assets = %+v", m.Assets)
	}
}

func TestExport_PartialFailure(t *testing.T) {
	fc := newFakeCompiler(plainAsset(1, "Good"))
	fc.errs[2] = errors.New("boom")
	fc.panics[3] = true
	e, dir := newTestExporter(t, fc, config.ExportConfig{Format: config.BundleFormatZip, Manifest: true}, false)

	res, err := e.Export(context.Background(), &Selection{AssetIDs: []int64{1, 2, 3}})
	if err == nil {
		t.Fatal("Export() expected aggregated error")
	}
	if !strings.Contains(err.Error(), "2 of 3") || !strings.Contains(err.Error(), "boom") {
		t.Errorf("Export() error = %v", err)
	}
	if res == nil || len(res.Manifest.Failed) != 2 || len(res.Manifest.Assets) != 1 {
		t.Fatalf("Export() result = %+v", res)
	}
	if _, err := os.Stat(filepath.Join(dir, "sfmc-assets-2026-05-01.zip")); err != nil {
		t.Errorf("bundle must be written for exported assets: %v", err)
	}
}

func TestExport_SessionLossAborts(t *testing.T) {
	fc := newFakeCompiler(plainAsset(1, "Good"), plainAsset(3, "Never"))
	fc.errs[2] = fmt.Errorf("unable to compile asset 2: %w", session.ErrNoSession)
	e, dir := newTestExporter(t, fc, config.ExportConfig{Format: config.BundleFormatZip}, false)

	_, err := e.Export(context.Background(), &Selection{AssetIDs: []int64{1, 2, 3}})
	if !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("Export() error = %v, want ErrNoSession", err)
	}
	if len(fc.opts) != 2 {
		t.Errorf("compiled %d assets, want 2", len(fc.opts))
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("nothing must be written, have %v", entries)
	}
}

func TestExport_Overwrite(t *testing.T) {
	fc := newFakeCompiler(plainAsset(1, "Welcome"))
	e, dir := newTestExporter(t, fc, config.ExportConfig{Format: config.BundleFormatHtml}, false)

	sel := &Selection{AssetIDs: []int64{1}}
	if _, err := e.Export(context.Background(), sel); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if _, err := e.Export(context.Background(), sel); !errors.Is(err, ErrExists) {
		t.Errorf("second Export() error = %v, want ErrExists", err)
	}

	sink, err := NewFSSink(dir, true, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	e.sink = sink
	if _, err := e.Export(context.Background(), sel); err != nil {
		t.Errorf("Export() with overwrite error = %v", err)
	}
}

func TestExport_EmptySelection(t *testing.T) {
	e, _ := newTestExporter(t, newFakeCompiler(), config.ExportConfig{}, false)
	if _, err := e.Export(context.Background(), &Selection{}); err == nil {
		t.Error("Export() expected error for empty selection")
	}
}
