package session

import (
	"context"
	"fmt"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"mcsave/state"
)

// Run is "session" command: it makes sure authenticated session is usable
// and reports business unit it belongs to.
func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("session")

	if u := cmd.String("url"); len(u) > 0 {
		// default stack is named explicitly so it is not detected again
		env.StackOverride = "s1"
		if stack := DetectStack(u); len(stack) > 0 {
			env.StackOverride = stack
		} else {
			log.Warn("Page address does not belong to Marketing Cloud, using default stack", zap.String("url", u))
		}
	}
	if s := cmd.String("stack"); len(s) > 0 {
		env.StackOverride = s
	}

	p, err := NewFromConfig(&env.Cfg.Session, env.Cfg.API.Timeout, env.Log)
	if err != nil {
		return err
	}
	stack := ResolveStack(ctx, p, env.Stack(), log)

	cred, err := p.Credential(ctx, stack)
	if err != nil {
		return fmt.Errorf("session check for %s failed: %w", p.BaseURL(stack), err)
	}

	log.Info("Session is active",
		zap.String("url", p.BaseURL(stack)),
		zap.String("businessUnit", cred.TenantID),
		zap.Duration("valid", time.Until(cred.ExpiresAt).Round(time.Second)))

	display := stack
	if len(display) == 0 {
		display = "s1"
	}
	bu := cred.TenantID
	if len(bu) == 0 {
		bu = "unknown"
	}
	_, err = fmt.Fprintf(cmd.Root().Writer, "stack: %s\nurl: %s\nbusiness unit: %s\n", display, p.BaseURL(stack), bu)
	return err
}
