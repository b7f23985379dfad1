package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"mcsave/config"
)

// NewFromConfig creates provider with cookie source selected by
// configuration.
func NewFromConfig(cfg *config.SessionConfig, timeout time.Duration, log *zap.Logger) (*Provider, error) {
	var source CookieSource
	switch cfg.CookieSource {
	case config.CookieSourceHeader:
		source = NewHeaderSource(cfg.Cookie.Value())
	case config.CookieSourceBrowser:
		source = NewBrowserSource(cfg.BrowserURL, log)
	case config.CookieSourceNone:
	default:
		return nil, fmt.Errorf("unsupported cookie source %q", cfg.CookieSource)
	}

	return NewProvider(source, log,
		WithBaseURL(cfg.BaseURL),
		WithTimeout(timeout),
		WithExpiryMargin(cfg.ExpiryMargin),
	)
}

// ResolveStack returns normalized stack to work with. When nothing was
// requested provider is asked to detect it, failure to detect is not fatal
// and default stack is used.
func ResolveStack(ctx context.Context, p *Provider, requested string, log *zap.Logger) string {
	stack := strings.TrimSpace(requested)
	if len(stack) == 0 {
		detected, err := p.DetectStack(ctx)
		if err != nil {
			log.Warn("Unable to detect stack, using default", zap.Error(err))
		}
		stack = detected
	}
	stack = NormalizeStack(stack)
	log.Debug("Using stack", zap.String("stack", stack), zap.String("url", p.BaseURL(stack)))
	return stack
}
