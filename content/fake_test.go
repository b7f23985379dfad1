package content

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"mcsave/mcapi"
)

// fakeRepo is in-memory repository understanding simple equal filters on
// customerKey and name.
type fakeRepo struct {
	assets  map[int64]*mcapi.Asset
	errs    map[int64]error
	delay   time.Duration
	fetches atomic.Int32
	queries atomic.Int32

	mu        sync.Mutex
	fetched   map[int64]int
	lastQuery *mcapi.Query
}

func newFakeRepo(assets ...*mcapi.Asset) *fakeRepo {
	r := &fakeRepo{
		assets:  make(map[int64]*mcapi.Asset),
		errs:    make(map[int64]error),
		fetched: make(map[int64]int),
	}
	for _, a := range assets {
		r.assets[a.ID] = a
	}
	return r
}

func (r *fakeRepo) FetchByID(ctx context.Context, id int64) (*mcapi.Asset, error) {
	r.fetches.Add(1)
	r.mu.Lock()
	r.fetched[id]++
	r.mu.Unlock()

	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := r.errs[id]; ok {
		return nil, err
	}
	a, ok := r.assets[id]
	if !ok {
		return nil, fmt.Errorf("unable to fetch asset %d: %w", id, &mcapi.APIError{Status: 404, Body: "not found"})
	}
	return a, nil
}

func (r *fakeRepo) Query(_ context.Context, q *mcapi.Query) (*mcapi.QueryResult, error) {
	r.queries.Add(1)
	r.mu.Lock()
	sent := *q
	r.lastQuery = &sent
	r.mu.Unlock()

	var items []mcapi.Asset
	for _, a := range r.assets {
		var match bool
		switch q.Query.Property {
		case "customerKey":
			match = a.CustomerKey == q.Query.Value
		case "name":
			match = a.Name == q.Query.Value
		default:
			return nil, errors.New("unsupported filter")
		}
		if match {
			items = append(items, mcapi.Asset{ID: a.ID, Name: a.Name, CustomerKey: a.CustomerKey})
		}
	}
	// unsorted results come in reverse id order
	slices.SortFunc(items, func(a, b mcapi.Asset) int { return cmp.Compare(b.ID, a.ID) })
	for _, o := range q.Sort {
		if o.Property == "id" && o.Direction == "ASC" {
			slices.SortFunc(items, func(a, b mcapi.Asset) int { return cmp.Compare(a.ID, b.ID) })
		}
	}
	count := len(items)
	if q.Page.PageSize > 0 && len(items) > q.Page.PageSize {
		items = items[:q.Page.PageSize]
	}
	return &mcapi.QueryResult{Count: count, Items: items}, nil
}

func (r *fakeRepo) fetchCount(id int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetched[id]
}

func (r *fakeRepo) query() *mcapi.Query {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastQuery
}

func block(id int64, key, name, html string) *mcapi.Asset {
	return &mcapi.Asset{ID: id, CustomerKey: key, Name: name, Content: html}
}

// fakeImages serves images by URL.
type fakeImages struct {
	images map[string]fakeImage
	calls  atomic.Int32
}

type fakeImage struct {
	data        []byte
	contentType string
}

func (f *fakeImages) FetchImage(_ context.Context, rawURL string) ([]byte, string, error) {
	f.calls.Add(1)
	img, ok := f.images[rawURL]
	if !ok {
		return nil, "", fmt.Errorf("image %s: %w", rawURL, &mcapi.APIError{Status: 404, Body: "Not Found"})
	}
	return img.data, img.contentType, nil
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
