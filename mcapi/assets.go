package mcapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"

	"go.uber.org/zap"

	"mcsave/misc"
	"mcsave/session"
)

const (
	categoriesEndpoint = "/cloud/fuelapi/asset/v1/content/categories"
	assetsEndpoint     = "/cloud/fuelapi/asset/v1/content/assets"
	queryEndpoint      = "/cloud/fuelapi/asset/v1/content/assets/query"
)

// DefaultAssetTypes are html email, template based email and html block.
var DefaultAssetTypes = []int{208, 207, 197}

var summaryFields = []string{"id", "name", "assetType", "category", "modifiedDate", "createdDate"}

// Categories returns all Content Builder folders.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	cats, err := paginate[Category](ctx, c, categoriesEndpoint, c.categoryPageSize)
	if err != nil {
		return nil, fmt.Errorf("unable to list categories: %w", err)
	}
	c.rpt.StoreJSON("api/categories.json", cats)
	return cats, nil
}

// FetchByID returns full asset.
func (c *Client) FetchByID(ctx context.Context, id int64) (*Asset, error) {
	var a Asset
	if err := c.request(ctx, http.MethodGet, fmt.Sprintf("%s/%d", assetsEndpoint, id), nil, &a); err != nil {
		return nil, fmt.Errorf("unable to fetch asset %d: %w", id, err)
	}
	c.rpt.StoreJSON(fmt.Sprintf("api/asset-%d.json", id), &a)
	return &a, nil
}

// Query runs asset query.
func (c *Client) Query(ctx context.Context, q *Query) (*QueryResult, error) {
	var res QueryResult
	if err := c.request(ctx, http.MethodPost, queryEndpoint, q, &res); err != nil {
		return nil, fmt.Errorf("asset query failed: %w", err)
	}
	return &res, nil
}

// AssetsByCategory lists assets of requested types (all types when empty)
// placed directly in the category, sorted by name. When query endpoint is not
// available plain filtered listing is used instead.
func (c *Client) AssetsByCategory(ctx context.Context, categoryID int64, types []int) (*QueryResult, error) {
	if len(types) == 0 {
		types = DefaultAssetTypes
	}

	res, err := c.queryCategory(ctx, categoryID, types)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, session.ErrNoSession) || ctx.Err() != nil {
		return nil, err
	}
	c.log.Debug("Asset query failed, falling back to listing", zap.Int64("category", categoryID), zap.Error(err))

	items, err := paginate[Asset](ctx, c, fmt.Sprintf("%s?$filter=category.id%%20eq%%20%d", assetsEndpoint, categoryID), c.pageSize)
	if err != nil {
		return nil, fmt.Errorf("unable to list assets of category %d: %w", categoryID, err)
	}
	items = slices.DeleteFunc(items, func(a Asset) bool {
		return !slices.Contains(types, int(a.AssetType.ID))
	})
	return &QueryResult{Items: items, Count: len(items)}, nil
}

func (c *Client) queryCategory(ctx context.Context, categoryID int64, types []int) (*QueryResult, error) {
	q := &Query{
		Page:   Page{Page: 1, PageSize: c.pageSize},
		Query:  And(Equal("category.id", categoryID), In("assetType.id", types)),
		Sort:   []Sort{{Property: "name", Direction: "ASC"}},
		Fields: summaryFields,
	}

	total := &QueryResult{}
	for {
		res, err := c.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		total.Items = append(total.Items, res.Items...)
		total.Count = res.Count
		if len(res.Items) < q.Page.PageSize || len(total.Items) >= res.Count {
			break
		}
		q.Page.Page++
	}
	if total.Count < len(total.Items) {
		total.Count = len(total.Items)
	}
	return total, nil
}

// FetchImage downloads image with session cookies, no API token is sent.
// It returns image data and declared content type.
func (c *Client) FetchImage(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", misc.UserAgent())

	resp, err := c.creds.Client().Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("image %s: %w", rawURL, &APIError{Status: resp.StatusCode, Body: http.StatusText(resp.StatusCode)})
	}

	var rdr io.Reader = resp.Body
	if c.maxImageSize > 0 {
		rdr = io.LimitReader(resp.Body, c.maxImageSize+1)
	}
	data, err := io.ReadAll(rdr)
	if err != nil {
		return nil, "", fmt.Errorf("read image %s: %w", rawURL, err)
	}
	if c.maxImageSize > 0 && int64(len(data)) > c.maxImageSize {
		return nil, "", fmt.Errorf("image %s is larger than %d bytes", rawURL, c.maxImageSize)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
