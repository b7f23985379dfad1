package folders

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mcsave/config"
	"mcsave/mcapi"
	"mcsave/state"
)

// Lister is what folder listing needs from content repository.
type Lister interface {
	Categories(ctx context.Context) ([]mcapi.Category, error)
	AssetsByCategory(ctx context.Context, categoryID int64, types []int) (*mcapi.QueryResult, error)
}

// Run is "list" command.
func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("list")

	types := env.Cfg.API.AssetTypes
	if cmd.IsSet("types") {
		types = types[:0:0]
		for _, name := range cmd.StringSlice("types") {
			t, err := config.ParseAssetType(name)
			if err != nil {
				return fmt.Errorf("bad asset type %q: %w", name, err)
			}
			types = append(types, t)
		}
	}

	env.StackOverride = cmd.String("stack")
	client, _, err := mcapi.NewFromEnv(ctx, env)
	if err != nil {
		return err
	}

	start := time.Now()
	t, assets, err := Load(ctx, client, cmd.Bool("assets"), config.AssetTypeIDs(types), env.Cfg.Compile.Concurrency, log)
	if err != nil {
		return err
	}
	log.Info("Folders loaded", zap.Int("folders", t.Len()), zap.Int("with assets", len(assets)), zap.Duration("elapsed", time.Since(start)))

	out := Render(t, assets)
	env.Rpt.StoreData("folders.txt", []byte(out))
	_, err = io.WriteString(cmd.Root().Writer, out)
	return err
}

// Load builds folder tree and, when requested, lists assets of every folder.
// Folder listings are requested concurrently, at most concurrency at a time.
func Load(ctx context.Context, l Lister, withAssets bool, types []int, concurrency int, log *zap.Logger) (*Tree, map[int64][]mcapi.Asset, error) {
	categories, err := l.Categories(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to list folders: %w", err)
	}
	t := Build(categories)
	if !withAssets {
		return t, nil, nil
	}

	var (
		mu     sync.Mutex
		assets = make(map[int64][]mcapi.Asset)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	_ = t.Walk(func(n *Node, _ int) error {
		id := n.Category.ID
		g.Go(func() error {
			res, err := l.AssetsByCategory(gctx, id, types)
			if err != nil {
				return fmt.Errorf("unable to list assets of folder %d: %w", id, err)
			}
			if len(res.Items) == 0 {
				return nil
			}
			mu.Lock()
			assets[id] = res.Items
			mu.Unlock()
			return nil
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	log.Debug("Folder assets listed", zap.Int("folders", len(assets)))
	return t, assets, nil
}
