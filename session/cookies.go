package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"go.uber.org/zap"
)

// CookieSource supplies cookies of an authenticated Marketing Cloud browser
// session. Cookies without Domain belong to the application host.
type CookieSource interface {
	Cookies(ctx context.Context) ([]*http.Cookie, error)
}

// HeaderSource takes cookies from raw "Cookie" request header value copied
// from the browser developer tools.
type HeaderSource struct {
	header string
}

func NewHeaderSource(header string) *HeaderSource {
	return &HeaderSource{header: strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(header), "Cookie:"))}
}

func (s *HeaderSource) Cookies(_ context.Context) ([]*http.Cookie, error) {
	if len(s.header) == 0 {
		return nil, fmt.Errorf("%w: cookie header is empty", ErrNoSession)
	}
	cookies, err := http.ParseCookie(s.header)
	if err != nil {
		return nil, fmt.Errorf("unable to parse cookie header: %w", err)
	}
	return cookies, nil
}

// BrowserSource reads cookies from a running browser over DevTools protocol.
// Browser has to be started with remote debugging enabled and must have
// Marketing Cloud session open. It is never closed by us.
type BrowserSource struct {
	controlURL string
	log        *zap.Logger
}

func NewBrowserSource(controlURL string, log *zap.Logger) *BrowserSource {
	return &BrowserSource{controlURL: controlURL, log: log.Named("browser")}
}

func (s *BrowserSource) connect(ctx context.Context) (*rod.Browser, error) {
	wsURL := s.controlURL
	if !strings.HasPrefix(wsURL, "ws://") && !strings.HasPrefix(wsURL, "wss://") {
		// http://host:port form, ask browser for its websocket endpoint
		u, err := launcher.ResolveURL(wsURL)
		if err != nil {
			return nil, fmt.Errorf("unable to resolve browser control url %q: %w", wsURL, err)
		}
		wsURL = u
	}
	b := rod.New().Context(ctx).ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("unable to connect to browser: %w", err)
	}
	s.log.Debug("Connected to browser", zap.String("url", wsURL))
	return b, nil
}

func (s *BrowserSource) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	b, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	list, err := b.GetCookies()
	if err != nil {
		return nil, fmt.Errorf("unable to read browser cookies: %w", err)
	}

	cookies := make([]*http.Cookie, 0, len(list))
	for _, c := range list {
		if !relevantDomain(c.Domain) {
			continue
		}
		cookies = append(cookies, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		})
	}
	s.log.Debug("Browser cookies collected", zap.Int("total", len(list)), zap.Int("relevant", len(cookies)))
	if len(cookies) == 0 {
		return nil, fmt.Errorf("%w: no Marketing Cloud cookies in browser", ErrNoSession)
	}
	return cookies, nil
}

// ActiveStack looks through open browser tabs and returns stack of the first
// Marketing Cloud page found.
func (s *BrowserSource) ActiveStack(ctx context.Context) (string, error) {
	b, err := s.connect(ctx)
	if err != nil {
		return "", err
	}
	pages, err := b.Pages()
	if err != nil {
		return "", fmt.Errorf("unable to list browser tabs: %w", err)
	}
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		if stack := DetectStack(info.URL); len(stack) > 0 {
			s.log.Debug("Stack detected", zap.String("stack", stack), zap.String("url", info.URL))
			return stack, nil
		}
	}
	return "", nil
}

// relevantDomain keeps cookies for application hosts and content (image)
// hosts, everything else in the browser is none of our business.
func relevantDomain(domain string) bool {
	d := strings.ToLower(strings.TrimPrefix(domain, "."))
	for _, suffix := range []string{"exacttarget.com", "marketingcloudapps.com", "sfmc-content.com", "salesforce.com"} {
		if d == suffix || strings.HasSuffix(d, "."+suffix) {
			return true
		}
	}
	return false
}
