package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"mcsave/config"
	"mcsave/content"
	"mcsave/mcapi"
	"mcsave/state"
)

const shutdownTimeout = 5 * time.Second

// Run is "serve" command, it blocks until interrupted.
func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("serve")

	addr := env.Cfg.Bridge.Listen
	if cmd.IsSet("listen") {
		addr = cmd.String("listen")
	}
	env.StackOverride = cmd.String("stack")

	client, provider, err := mcapi.NewFromEnv(ctx, env)
	if err != nil {
		return err
	}

	opts := Options{
		Stack:      client.Stack(),
		AssetTypes: config.AssetTypeIDs(env.Cfg.API.AssetTypes),
		Compile: content.Options{
			ResolveBlocks: env.Cfg.Compile.ResolveBlocks,
			IncludeImages: env.Cfg.Compile.IncludeImages,
			MaxDepth:      env.Cfg.Compile.MaxDepth,
		},
		Concurrency: env.Cfg.Compile.Concurrency,
	}
	backend := func(stack string) Backend {
		if stack == client.Stack() {
			return client
		}
		return client.WithStack(stack)
	}

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("unable to listen on %s: %w", addr, err)
	}
	return Serve(ctx, l, NewServer(provider, backend, opts, env.Log), log)
}

// Serve handles requests on listener until context is cancelled.
func Serve(ctx context.Context, l net.Listener, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(l)
	}()
	log.Info("Bridge listening", zap.String("address", l.Addr().String()))

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("bridge server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("unable to stop bridge: %w", err)
	}
	log.Info("Bridge stopped")
	return nil
}
