package content

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"mcsave/mcapi"
	"mcsave/session"
)

// ErrAssetNotFound is returned (wrapped) when reference does not match any
// asset.
var ErrAssetNotFound = errors.New("content block not found")

// Repository is content storage used to resolve references.
type Repository interface {
	FetchByID(ctx context.Context, id int64) (*mcapi.Asset, error)
	Query(ctx context.Context, q *mcapi.Query) (*mcapi.QueryResult, error)
}

// BlockResolver turns reference into HTML fragment.
type BlockResolver interface {
	Resolve(ctx context.Context, ref Reference) (string, error)
}

// Resolver resolves references against repository. Failures are replaced by
// visible HTML comment, only lost session and cancellation are reported back.
type Resolver struct {
	repo Repository
	log  *zap.Logger
}

func NewResolver(repo Repository, log *zap.Logger) *Resolver {
	return &Resolver{repo: repo, log: log.Named("resolver")}
}

func (r *Resolver) Resolve(ctx context.Context, ref Reference) (string, error) {
	fragment, err := r.fetch(ctx, ref)
	if err == nil {
		r.log.Debug("Content block resolved", zap.Stringer("ref", ref), zap.Int("size", len(fragment)))
		return fragment, nil
	}
	if errors.Is(err, session.ErrNoSession) || ctx.Err() != nil {
		return "", err
	}
	r.log.Warn("Unable to resolve content block", zap.Stringer("ref", ref), zap.Error(err))
	return FallbackMarker(ref), nil
}

func (r *Resolver) fetch(ctx context.Context, ref Reference) (string, error) {
	var id int64
	switch ref.Kind {
	case KindById:
		var err error
		if id, err = strconv.ParseInt(ref.Value, 10, 64); err != nil {
			return "", fmt.Errorf("bad asset id %q: %w", ref.Value, err)
		}
	case KindByKey:
		found, err := r.lookup(ctx, mcapi.Equal("customerKey", ref.Value), nil)
		if err != nil {
			return "", err
		}
		id = found
	case KindByName:
		// names are not unique, lowest id wins
		found, err := r.lookup(ctx, mcapi.Equal("name", ref.Value), []mcapi.Sort{{Property: "id", Direction: "ASC"}})
		if err != nil {
			return "", err
		}
		id = found
	default:
		return "", fmt.Errorf("unsupported reference kind %v", ref.Kind)
	}

	asset, err := r.repo.FetchByID(ctx, id)
	if err != nil {
		return "", err
	}
	return asset.HTMLContent(), nil
}

// lookup finds id of the first asset matching filter. Query returns summary
// only, so content has to be fetched separately.
func (r *Resolver) lookup(ctx context.Context, filter mcapi.Filter, sort []mcapi.Sort) (int64, error) {
	res, err := r.repo.Query(ctx, &mcapi.Query{
		Page:   mcapi.Page{Page: 1, PageSize: 1},
		Query:  filter,
		Sort:   sort,
		Fields: []string{"id", "name", "customerKey"},
	})
	if err != nil {
		return 0, err
	}
	if len(res.Items) == 0 {
		return 0, fmt.Errorf("%w: %s %v", ErrAssetNotFound, filter.Property, filter.Value)
	}
	return res.Items[0].ID, nil
}

// FallbackMarker is put in place of reference which could not be resolved.
func FallbackMarker(ref Reference) string {
	// "--" is not allowed inside HTML comments
	value := strings.ReplaceAll(ref.Value, ">", "&gt;")
	for strings.Contains(value, "--") {
		value = strings.ReplaceAll(value, "--", "- -")
	}
	return fmt.Sprintf("<!-- ContentBlock%s %q could not be resolved -->", ref.Kind, value)
}
