package mcapi

import (
	"context"

	"mcsave/session"
	"mcsave/state"
)

// NewFromEnv creates session provider and client for the stack requested by
// current run. When stack is not known it is looked up through the cookie
// source.
func NewFromEnv(ctx context.Context, env *state.LocalEnv) (*Client, *session.Provider, error) {
	cfg := env.Cfg

	provider, err := session.NewFromConfig(&cfg.Session, cfg.API.Timeout, env.Log)
	if err != nil {
		return nil, nil, err
	}

	stack := session.ResolveStack(ctx, provider, env.Stack(), env.Log)

	client := New(provider, stack, env.Log,
		WithPageSize(cfg.API.PageSize),
		WithCategoryPageSize(cfg.API.CategoryPageSize),
		WithMaxImageSize(cfg.Compile.MaxImageSize),
		WithReport(env.Rpt),
	)
	return client, provider, nil
}
