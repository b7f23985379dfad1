// Package content turns Content Builder assets into self-contained HTML:
// slots and attached blocks are inlined, content block references are
// resolved recursively and images are optionally downloaded.
package content

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mcsave/mcapi"
	"mcsave/utils/tree"
)

// Options controls asset compilation.
type Options struct {
	ResolveBlocks bool
	IncludeImages bool
	MaxDepth      int
}

func DefaultOptions() Options {
	return Options{ResolveBlocks: true, IncludeImages: false, MaxDepth: DefaultMaxDepth}
}

// CompiledAsset is asset ready to be written out.
type CompiledAsset struct {
	ID          int64
	Name        string
	CustomerKey string
	HTML        string
	Images      []ImageArtifact
	Unresolved  []Reference
	Rounds      int
}

// String returns readable summary, it is used for debug logging.
func (ca *CompiledAsset) String() string {
	if ca == nil {
		return "<nil CompiledAsset>"
	}
	w := tree.NewWriter("")
	w.Line(0, "Asset[%d] %q key[%q] html[%d] rounds[%d]", ca.ID, ca.Name, ca.CustomerKey, len(ca.HTML), ca.Rounds)
	if len(ca.Images) > 0 {
		w.Line(1, "Images: %d", len(ca.Images))
		for _, img := range ca.Images {
			w.Line(2, "Image[%q] mime[%q] size[%d] url[%q]", img.FileName, img.ContentType, len(img.Data), img.OriginalURL)
		}
	}
	if len(ca.Unresolved) > 0 {
		w.Line(1, "Unresolved: %d", len(ca.Unresolved))
		for _, ref := range ca.Unresolved {
			w.Value(2, ref.String(), ref.RawMatch)
		}
	}
	return w.String()
}

// Engine puts together fetch, slot compilation, block resolution and image
// materialization.
type Engine struct {
	repo         Repository
	compiler     *Compiler
	materializer *Materializer
	log          *zap.Logger
}

// NewEngine creates engine, images could be nil in which case images are
// never downloaded.
func NewEngine(repo Repository, images ImageFetcher, concurrency int, log *zap.Logger) *Engine {
	log = log.Named("content")
	e := &Engine{
		repo:     repo,
		compiler: NewCompiler(NewResolver(repo, log), concurrency, log),
		log:      log,
	}
	if images != nil {
		e.materializer = NewMaterializer(images, concurrency, log)
	}
	return e
}

// CompileAsset fetches asset and compiles it. Failure to fetch the asset
// itself is an error, failures of nested content are not.
func (e *Engine) CompileAsset(ctx context.Context, id int64, opts Options) (*CompiledAsset, error) {
	asset, err := e.repo.FetchByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("unable to compile asset %d: %w", id, err)
	}
	return e.Compile(ctx, asset, opts)
}

// Compile compiles already fetched asset.
func (e *Engine) Compile(ctx context.Context, asset *mcapi.Asset, opts Options) (*CompiledAsset, error) {
	ca := &CompiledAsset{
		ID:          asset.ID,
		Name:        asset.Name,
		CustomerKey: asset.CustomerKey,
		HTML:        CompileSlots(asset, e.log),
	}

	if opts.ResolveBlocks {
		res, err := e.compiler.Compile(ctx, ca.HTML, opts.MaxDepth)
		if err != nil {
			return nil, fmt.Errorf("unable to resolve content blocks of asset %d: %w", asset.ID, err)
		}
		ca.HTML, ca.Rounds, ca.Unresolved = res.HTML, res.Rounds, res.Unresolved
	}

	if opts.IncludeImages {
		if e.materializer == nil {
			e.log.Warn("Image download is not available, images are kept remote", zap.Int64("asset", asset.ID))
		} else {
			text, images, err := e.materializer.Materialize(ctx, ca.HTML)
			if err != nil {
				return nil, fmt.Errorf("unable to download images of asset %d: %w", asset.ID, err)
			}
			ca.HTML, ca.Images = text, images
		}
	}

	e.log.Debug("Asset compiled", zap.Int64("id", asset.ID), zap.String("name", asset.Name),
		zap.Int("rounds", ca.Rounds), zap.Int("images", len(ca.Images)), zap.Int("unresolved", len(ca.Unresolved)))
	return ca, nil
}
