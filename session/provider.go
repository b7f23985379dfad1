// Package session turns an authenticated Marketing Cloud browser session into
// API credentials.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"mcsave/misc"
)

// ErrNoSession is returned (wrapped) whenever there is no usable
// authenticated session, callers should ask user to log in again.
var ErrNoSession = errors.New("no active Marketing Cloud session")

const (
	tokenEndpoint = "/cloud/update-token.json"
	userEndpoint  = "/cloud/fuelapi/legacy/v1/beta/organization/user/@me"
)

// Credential is short lived API access token for a single stack.
type Credential struct {
	Token     string
	TenantID  string
	Stack     string
	ExpiresAt time.Time
}

// Provider obtains and caches credentials. It is safe for concurrent use.
type Provider struct {
	source  CookieSource
	baseURL string
	margin  time.Duration
	client  *http.Client
	log     *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	loaded  map[string]bool
	entries map[string]*Credential
}

type Option func(*Provider)

// WithBaseURL replaces stack derived application root, all stacks share it.
func WithBaseURL(u string) Option {
	return func(p *Provider) {
		p.baseURL = strings.TrimRight(strings.TrimSpace(u), "/")
	}
}

func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.client.Timeout = d
		}
	}
}

func WithExpiryMargin(d time.Duration) Option {
	return func(p *Provider) {
		p.margin = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

// NewProvider creates provider on top of cookie source. Nil source means
// requests are sent without cookies.
func NewProvider(source CookieSource, log *zap.Logger, opts ...Option) (*Provider, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("unable to create cookie jar: %w", err)
	}
	p := &Provider{
		source:  source,
		margin:  time.Minute,
		client:  &http.Client{Jar: jar, Timeout: 60 * time.Second},
		log:     log.Named("session"),
		now:     time.Now,
		loaded:  make(map[string]bool),
		entries: make(map[string]*Credential),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// BaseURL returns application root used for the stack.
func (p *Provider) BaseURL(stack string) string {
	if len(p.baseURL) > 0 {
		return p.baseURL
	}
	return BaseURL(stack)
}

// Client returns HTTP client carrying session cookies.
func (p *Provider) Client() *http.Client {
	return p.client
}

// Credential returns cached credential for the stack or obtains a new one.
func (p *Provider) Credential(ctx context.Context, stack string) (*Credential, error) {
	key := NormalizeStack(stack)

	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.entries[key]; ok && p.now().Before(c.ExpiresAt) {
		return c, nil
	}

	if err := p.loadCookies(ctx, key); err != nil {
		return nil, err
	}
	c, err := p.requestCredential(ctx, key)
	if err != nil {
		return nil, err
	}
	p.entries[key] = c
	p.log.Debug("Access token obtained", zap.String("stack", key), zap.String("tenant", c.TenantID), zap.Time("expires", c.ExpiresAt))
	return c, nil
}

// DetectStack asks cookie source which stack user is working with, empty
// result means source does not know.
func (p *Provider) DetectStack(ctx context.Context) (string, error) {
	d, ok := p.source.(interface {
		ActiveStack(ctx context.Context) (string, error)
	})
	if !ok {
		return "", nil
	}
	return d.ActiveStack(ctx)
}

// Invalidate drops cached credential and cookies for the stack, so the next
// call goes to the cookie source again.
func (p *Provider) Invalidate(stack string) {
	key := NormalizeStack(stack)

	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.entries, key)
	delete(p.loaded, key)
}

func (p *Provider) loadCookies(ctx context.Context, stack string) error {
	if p.source == nil || p.loaded[stack] {
		return nil
	}
	cookies, err := p.source.Cookies(ctx)
	if err != nil {
		return err
	}
	base, err := url.Parse(p.BaseURL(stack))
	if err != nil {
		return fmt.Errorf("bad base url: %w", err)
	}
	for _, c := range cookies {
		if len(c.Domain) == 0 {
			p.client.Jar.SetCookies(base, []*http.Cookie{c})
			continue
		}
		u := &url.URL{Scheme: "https", Host: strings.TrimPrefix(c.Domain, "."), Path: "/"}
		if !strings.HasPrefix(c.Domain, ".") {
			// host only cookie
			c.Domain = ""
		}
		p.client.Jar.SetCookies(u, []*http.Cookie{c})
	}
	p.loaded[stack] = true
	return nil
}

func (p *Provider) requestCredential(ctx context.Context, stack string) (*Credential, error) {
	base := p.BaseURL(stack)

	var token struct {
		AccessToken string  `json:"accessToken"`
		ExpiresIn   float64 `json:"expiresIn"`
	}
	if err := p.getJSON(ctx, base+tokenEndpoint, "", &token); err != nil {
		return nil, err
	}
	if len(token.AccessToken) == 0 {
		return nil, fmt.Errorf("%w: token not found in response", ErrNoSession)
	}

	c := &Credential{
		Token:     token.AccessToken,
		Stack:     stack,
		ExpiresAt: p.now().Add(time.Duration(token.ExpiresIn*float64(time.Second)) - p.margin),
	}

	// business unit is informational only
	var user struct {
		BusinessUnitID json.Number `json:"businessUnitId"`
	}
	if err := p.getJSON(ctx, base+userEndpoint, c.Token, &user); err != nil {
		p.log.Debug("Unable to get user information", zap.Error(err))
	} else {
		c.TenantID = user.BusinessUnitID.String()
	}
	return c, nil
}

func (p *Provider) getJSON(ctx context.Context, u, token string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", misc.UserAgent())
	if len(token) > 0 {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s returned %d", ErrNoSession, req.URL.Path, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s returned %d: %s", req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		// login page instead of json
		return fmt.Errorf("%w: unexpected response from %s: %v", ErrNoSession, req.URL.Path, err)
	}
	return nil
}
