package export

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"mcsave/config"
	"mcsave/content"
	"mcsave/mcapi"
	"mcsave/state"
)

// Run is "export" command.
func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("export")

	cfg := env.Cfg.Export
	if cmd.IsSet("format") {
		format, err := config.ParseBundleFormat(cmd.String("format"))
		if err != nil {
			log.Warn("Unknown bundle format requested, using configured one", zap.Stringer("format", cfg.Format), zap.Error(err))
		} else {
			cfg.Format = format
		}
	}
	if cmd.Bool("markdown") {
		cfg.Markdown = true
	}
	env.Overwrite = cmd.Bool("overwrite")

	sel, dst, err := buildSelection(cmd, &env.Cfg.Compile)
	if err != nil {
		return err
	}
	if file := cmd.String("selection"); len(file) > 0 {
		if err := env.Rpt.StoreCopy(path.Join("selection", filepath.Base(file)), file); err != nil {
			log.Warn("Unable to store selection in debug report", zap.Error(err))
		}
	}
	if len(dst) == 0 {
		dst = cfg.Destination
	}

	// command line wins, then selection, then configuration
	env.StackOverride = cmd.String("stack")
	if len(env.StackOverride) == 0 {
		env.StackOverride = sel.Stack
	}

	client, _, err := mcapi.NewFromEnv(ctx, env)
	if err != nil {
		return err
	}
	sel.Stack = client.Stack()

	if name := cmd.String("save-selection"); len(name) > 0 {
		if err := sel.Save(name); err != nil {
			return err
		}
		log.Info("Selection saved", zap.String("file", name))
	}

	sink, err := NewSink(ctx, dst, &cfg.S3, env.Overwrite, log)
	if err != nil {
		return err
	}

	log.Info("Processing starting", zap.Int("assets", len(sel.AssetIDs)), zap.String("stack", sel.Stack),
		zap.String("destination", sink.Location("")), zap.Stringer("format", cfg.Format))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	engine := content.NewEngine(client, client, env.Cfg.Compile.Concurrency, log)
	res, err := NewExporter(engine, sink, &cfg, env.Cfg.Compile.MaxDepth, env.Rpt, log).Export(ctx, sel)
	if res != nil {
		for _, out := range res.Outputs {
			log.Info("Bundle written", zap.String("location", out), zap.Stringer("format", res.Format), zap.Int("assets", len(res.Manifest.Assets)))
		}
	}
	return err
}

// buildSelection assembles selection from selection file, previous bundle or
// command line arguments (ID... [DESTINATION]).
func buildSelection(cmd *cli.Command, compile *config.CompileConfig) (*Selection, string, error) {
	var (
		ids []int64
		dst string
	)
	for i, arg := range cmd.Args().Slice() {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err == nil {
			ids = append(ids, id)
			continue
		}
		if i != cmd.Args().Len()-1 {
			return nil, "", fmt.Errorf("bad asset id %q", arg)
		}
		dst = arg
	}

	var (
		sel *Selection
		err error
	)
	switch from, file := cmd.String("from"), cmd.String("selection"); {
	case len(from) > 0 && len(file) > 0:
		return nil, "", errors.New("--from and --selection are mutually exclusive")
	case len(from) > 0:
		sel, err = SelectionFromBundle(from)
	case len(file) > 0:
		sel, err = LoadSelection(file)
	default:
		sel = &Selection{
			AssetIDs:      ids,
			ResolveBlocks: compile.ResolveBlocks,
			IncludeImages: compile.IncludeImages,
		}
		ids = nil
	}
	if err != nil {
		return nil, "", err
	}

	sel.AssetIDs = append(sel.AssetIDs, ids...)
	if cmd.IsSet("no-resolve") {
		sel.ResolveBlocks = !cmd.Bool("no-resolve")
	}
	if cmd.IsSet("images") {
		sel.IncludeImages = cmd.Bool("images")
	}
	sel.Normalize()
	if err := sel.Validate(); err != nil {
		return nil, "", err
	}
	return sel, dst, nil
}
