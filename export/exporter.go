package export

import (
	"context"
	"errors"
	"fmt"
	"path"
	"runtime/debug"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"mcsave/config"
	"mcsave/content"
	"mcsave/misc"
	"mcsave/session"
)

// AssetCompiler produces compiled asset by id.
type AssetCompiler interface {
	CompileAsset(ctx context.Context, id int64, opts content.Options) (*content.CompiledAsset, error)
}

// Result describes finished export.
type Result struct {
	Manifest *Manifest
	Format   config.BundleFormat
	// where outputs went, as reported by the sink
	Outputs []string
}

type Exporter struct {
	compiler AssetCompiler
	sink     Sink
	cfg      *config.ExportConfig
	maxDepth int
	rpt      *config.Report
	now      func() time.Time
	log      *zap.Logger
}

func NewExporter(compiler AssetCompiler, sink Sink, cfg *config.ExportConfig, maxDepth int, rpt *config.Report, log *zap.Logger) *Exporter {
	return &Exporter{
		compiler: compiler,
		sink:     sink,
		cfg:      cfg,
		maxDepth: maxDepth,
		rpt:      rpt,
		now:      time.Now,
		log:      log,
	}
}

// Export compiles every selected asset and writes the bundle. Failure of
// individual assets does not stop the run, such failures are returned
// together after bundle is written. Lost session and cancellation abort the
// run immediately.
func (e *Exporter) Export(ctx context.Context, sel *Selection) (*Result, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	now := e.now()
	manifest := newManifest(misc.GetAppName()+"/"+misc.GetVersion(), sel, now)
	namer := NewNamer(e.cfg, sel.Stack, now, e.log)

	var md *markdown
	if e.cfg.Markdown {
		md = newMarkdown()
	}

	opts := content.Options{ResolveBlocks: sel.ResolveBlocks, IncludeImages: sel.IncludeImages, MaxDepth: e.maxDepth}

	var (
		b    bundle
		errs error
	)
	for _, id := range sel.AssetIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ca, err := e.compile(ctx, id, opts)
		if err != nil {
			if errors.Is(err, session.ErrNoSession) || ctx.Err() != nil {
				return nil, err
			}
			e.log.Error("Unable to export asset", zap.Int64("id", id), zap.Error(err))
			manifest.fail(id, err)
			errs = multierr.Append(errs, err)
			continue
		}

		var text string
		if md != nil {
			if text, err = md.Render(ca.HTML); err != nil {
				e.log.Warn("Markdown rendition skipped", zap.Int64("id", id), zap.Error(err))
			}
		}

		files, images := b.addAsset(namer.Name(ca), ca, text)
		manifest.add(ca, files, images)
	}

	if b.assets == 0 {
		return nil, fmt.Errorf("nothing to export: %w", errs)
	}

	format := b.resolveFormat(e.cfg.Format)

	var data []byte
	if e.cfg.Manifest && format != config.BundleFormatHtml {
		var err error
		if data, err = manifest.encode(); err != nil {
			return nil, fmt.Errorf("unable to encode manifest: %w", err)
		}
	}
	e.rpt.StoreJSON("manifest.json", manifest)

	names, err := b.write(ctx, e.sink, format, bundleName(now), data, e.cfg.FixZip, e.log)
	if err != nil {
		return nil, fmt.Errorf("unable to write bundle: %w", err)
	}

	res := &Result{Manifest: manifest, Format: format}
	for _, name := range names {
		loc := e.sink.Location(name)
		res.Outputs = append(res.Outputs, loc)
		if _, local := e.sink.(*FSSink); local {
			e.rpt.Store(path.Join("result", name), loc)
		}
	}

	if errs != nil {
		return res, fmt.Errorf("%d of %d assets were not exported: %w", len(manifest.Failed), len(sel.AssetIDs), errs)
	}
	return res, nil
}

func (e *Exporter) compile(ctx context.Context, id int64, opts content.Options) (ca *content.CompiledAsset, rerr error) {
	e.log.Info("Asset export starting", zap.Int64("id", id))
	defer func(start time.Time) {
		// one broken asset must not take whole batch down
		if r := recover(); r != nil {
			e.log.Error("Asset export ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.Int64("id", id), zap.ByteString("stack", debug.Stack()))
			ca, rerr = nil, fmt.Errorf("asset %d export panic: %v", id, r)
		} else if rerr == nil {
			e.log.Info("Asset export completed", zap.Duration("elapsed", time.Since(start)), zap.Int64("id", id),
				zap.String("name", ca.Name), zap.Int("images", len(ca.Images)), zap.Int("unresolved", len(ca.Unresolved)))
			e.log.Debug("Compiled asset", zap.Stringer("asset", ca))
		}
	}(time.Now())

	return e.compiler.CompileAsset(ctx, id, opts)
}
