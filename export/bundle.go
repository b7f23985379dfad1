package export

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"time"

	fixzip "github.com/hidez8891/zip"
	"go.uber.org/zap"

	"mcsave/config"
	"mcsave/content"
	"mcsave/misc"
)

// file is single bundle entry, path is slash separated.
type file struct {
	path string
	data []byte
}

// bundle accumulates files of all exported assets.
type bundle struct {
	files    []file
	images   bool
	markdown bool
	assets   int
}

// addAsset lays out compiled asset. Asset with images gets its own folder,
// otherwise files are placed at bundle root.
func (b *bundle) addAsset(name string, ca *content.CompiledAsset, md string) ([]string, []ManifestImage) {
	dir := ""
	if len(ca.Images) > 0 {
		dir = name
		b.images = true
	}

	var (
		files  []string
		images []ManifestImage
	)
	add := func(p string, data []byte) {
		b.files = append(b.files, file{path: p, data: data})
		files = append(files, p)
	}

	add(path.Join(dir, name+".html"), []byte(ca.HTML))
	if len(md) > 0 {
		add(path.Join(dir, name+".md"), []byte(md))
		b.markdown = true
	}
	for _, img := range ca.Images {
		p := path.Join(dir, content.ImagesDir, img.FileName)
		add(p, img.Data)
		images = append(images, ManifestImage{File: p, URL: img.OriginalURL})
	}
	b.assets++
	return files, images
}

// resolveFormat decides on actual format for "auto": single asset without
// additional files goes out as plain HTML, everything else is zipped.
func (b *bundle) resolveFormat(format config.BundleFormat) config.BundleFormat {
	if format != config.BundleFormatAuto {
		return format
	}
	if b.assets == 1 && !b.images && !b.markdown {
		return config.BundleFormatHtml
	}
	return config.BundleFormatZip
}

// bundleName is base name of zip archive or directory.
func bundleName(now time.Time) string {
	return "sfmc-assets-" + now.Format(time.DateOnly)
}

// write stores bundle into sink and returns names of top level outputs.
func (b *bundle) write(ctx context.Context, sink Sink, format config.BundleFormat, name string, manifest []byte, fix bool, log *zap.Logger) ([]string, error) {
	switch format {
	case config.BundleFormatHtml:
		// loose files, no manifest
		outputs := make([]string, 0, len(b.files))
		for _, f := range b.files {
			if err := sink.Put(ctx, f.path, bytes.NewReader(f.data)); err != nil {
				return outputs, err
			}
			outputs = append(outputs, f.path)
		}
		return outputs, nil

	case config.BundleFormatDir:
		for _, f := range b.withManifest(manifest) {
			if err := sink.Put(ctx, path.Join(name, f.path), bytes.NewReader(f.data)); err != nil {
				return nil, err
			}
		}
		return []string{name}, nil

	case config.BundleFormatZip:
		zipName := name + ".zip"
		if err := b.writeZip(ctx, sink, zipName, manifest, fix, log); err != nil {
			return nil, err
		}
		return []string{zipName}, nil

	default:
		return nil, fmt.Errorf("unsupported bundle format %q", format)
	}
}

func (b *bundle) withManifest(manifest []byte) []file {
	if len(manifest) == 0 {
		return b.files
	}
	return append(b.files[:len(b.files):len(b.files)], file{path: ManifestName, data: manifest})
}

func (b *bundle) writeZip(ctx context.Context, sink Sink, zipName string, manifest []byte, fix bool, log *zap.Logger) error {
	tmp, err := os.CreateTemp("", misc.GetAppName()+"-*.zip")
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	defer tmp.Close()

	zw := zip.NewWriter(tmp)
	now := time.Now()
	for _, f := range b.withManifest(manifest) {
		if err := ctx.Err(); err != nil {
			return err
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.path, Method: zip.Deflate, Modified: now})
		if err != nil {
			return fmt.Errorf("unable to add %s to archive: %w", f.path, err)
		}
		if _, err := w.Write(f.data); err != nil {
			return fmt.Errorf("unable to write %s to archive: %w", f.path, err)
		}
	}
	// make sure buffers are flushed before continuing
	if err := zw.Close(); err != nil {
		return fmt.Errorf("unable to close output archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to finalize output file: %w", err)
	}

	src := tmpName
	if fix {
		fixed := tmpName + ".fixed"
		defer os.Remove(fixed)
		if err := copyZipWithoutDataDescriptors(tmpName, fixed); err != nil {
			return err
		}
		log.Debug("Archive rewritten without data descriptors", zap.String("archive", zipName))
		src = fixed
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("unable to open archive: %w", err)
	}
	defer in.Close()
	return sink.Put(ctx, zipName, in)
}

func copyZipWithoutDataDescriptors(from, to string) error {
	out, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", to, err)
	}
	defer out.Close()

	r, err := fixzip.OpenReader(from)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", from, err)
	}
	defer r.Close()

	w := fixzip.NewWriter(out)
	for _, f := range r.File {
		// unset data descriptor flag.
		f.Flags &= ^fixzip.FlagDataDescriptor

		// copy zip entry
		if err := w.CopyFile(f); err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", to, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("unable to finalize target file (%s): %w", to, err)
	}
	return out.Close()
}
