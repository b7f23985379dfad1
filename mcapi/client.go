// Package mcapi is Content Builder REST client working on behalf of an
// authenticated browser session.
package mcapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"mcsave/config"
	"mcsave/misc"
	"mcsave/session"
)

// ErrNotFound is returned (wrapped) when requested object does not exist.
var ErrNotFound = errors.New("not found")

// APIError is unsuccessful API response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// Credentials is what client needs from session provider.
type Credentials interface {
	Credential(ctx context.Context, stack string) (*session.Credential, error)
	Invalidate(stack string)
	BaseURL(stack string) string
	Client() *http.Client
}

// Client talks to a single Marketing Cloud stack.
type Client struct {
	creds            Credentials
	stack            string
	pageSize         int
	categoryPageSize int
	maxImageSize     int64
	rpt              *config.Report
	log              *zap.Logger
}

type Option func(*Client)

// WithPageSize sets page size of asset listings.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithCategoryPageSize sets page size of folder listing.
func WithCategoryPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.categoryPageSize = n
		}
	}
}

// WithMaxImageSize limits size of downloaded images, 0 means no limit.
func WithMaxImageSize(n int64) Option {
	return func(c *Client) {
		c.maxImageSize = n
	}
}

// WithReport stores raw API payloads in debug report.
func WithReport(rpt *config.Report) Option {
	return func(c *Client) {
		c.rpt = rpt
	}
}

func New(creds Credentials, stack string, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		creds:            creds,
		stack:            stack,
		pageSize:         50,
		categoryPageSize: 500,
		log:              log.Named("api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithStack returns client for another stack sharing everything else.
func (c *Client) WithStack(stack string) *Client {
	clone := *c
	clone.stack = stack
	return &clone
}

func (c *Client) Stack() string {
	return c.stack
}

// request performs authenticated API call. Response body is decoded into out
// when it is JSON, or stored as is when out is *string.
func (c *Client) request(ctx context.Context, method, endpoint string, body, out any) error {
	cred, err := c.creds.Credential(ctx, c.stack)
	if err != nil {
		return err
	}

	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("unable to encode request body: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.creds.BaseURL(c.stack)+endpoint, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set("User-Agent", misc.UserAgent())

	c.log.Debug("Request", zap.String("method", method), zap.String("endpoint", endpoint))

	resp, err := c.creds.Client().Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return fmt.Errorf("read response %s: %w", endpoint, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.creds.Invalidate(c.stack)
		return fmt.Errorf("%w: %w", session.ErrNoSession, &APIError{Status: resp.StatusCode, Body: string(data)})
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &APIError{Status: resp.StatusCode, Body: string(data)}
	}

	if s, ok := out.(*string); ok {
		*s = string(data)
		return nil
	}
	if out == nil {
		return nil
	}
	if !isJSON(resp.Header.Get("Content-Type")) {
		return fmt.Errorf("unexpected content type %q from %s", resp.Header.Get("Content-Type"), endpoint)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response %s: %w", endpoint, err)
	}
	return nil
}

// readBody returns response body converted to UTF-8 according to declared
// charset.
func readBody(resp *http.Response) ([]byte, error) {
	rdr, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		rdr = resp.Body
	}
	return io.ReadAll(rdr)
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// paginate collects all items of paged listing endpoint. Listing stops on the
// first page which is not full.
func paginate[T any](ctx context.Context, c *Client, endpoint string, pageSize int) ([]T, error) {
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}

	var all []T
	for page := 1; ; page++ {
		var resp struct {
			Items []T `json:"items"`
		}
		if err := c.request(ctx, http.MethodGet, fmt.Sprintf("%s%s$pageSize=%d&$page=%d", endpoint, sep, pageSize, page), nil, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Items...)
		if len(resp.Items) < pageSize {
			return all, nil
		}
	}
}
