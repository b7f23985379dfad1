package content

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"mcsave/mcapi"
	"mcsave/session"
)

func TestResolver_Resolve(t *testing.T) {
	repo := newFakeRepo(
		block(10, "hdr", "Header", "<h1>Header</h1>"),
		block(20, "ftr", "Footer", "<p>Footer</p>"),
		block(31, "dup-2", "Shared", "second"),
		block(30, "dup-1", "Shared", "first"),
		&mcapi.Asset{ID: 40, CustomerKey: "view", Name: "View", Content: "generic", Views: mcapi.Views{HTML: &mcapi.View{Content: "from view"}}},
	)
	r := NewResolver(repo, zaptest.NewLogger(t))

	tests := []struct {
		name string
		ref  Reference
		want string
	}{
		{"by id", Reference{Kind: KindById, Value: "10"}, "<h1>Header</h1>"},
		{"by key", Reference{Kind: KindByKey, Value: "ftr"}, "<p>Footer</p>"},
		{"by name lowest id wins", Reference{Kind: KindByName, Value: "Shared"}, "first"},
		{"html view preferred", Reference{Kind: KindById, Value: "40"}, "from view"},
		{"missing id", Reference{Kind: KindById, Value: "999999"}, `<!-- ContentBlockById "999999" could not be resolved -->`},
		{"missing key", Reference{Kind: KindByKey, Value: "nope"}, `<!-- ContentBlockByKey "nope" could not be resolved -->`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.ref)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolver_LookupQuery(t *testing.T) {
	repo := newFakeRepo(
		block(7, "late", "Shared", "late"),
		block(3, "early", "Shared", "early"),
	)
	r := NewResolver(repo, zaptest.NewLogger(t))

	tests := []struct {
		name     string
		ref      Reference
		property string
		sort     []mcapi.Sort
		want     string
	}{
		{"by name", Reference{Kind: KindByName, Value: "Shared"}, "name", []mcapi.Sort{{Property: "id", Direction: "ASC"}}, "early"},
		{"by key", Reference{Kind: KindByKey, Value: "late"}, "customerKey", nil, "late"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.ref)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
			q := repo.query()
			if q == nil {
				t.Fatal("no query sent")
			}
			if q.Page.PageSize != 1 {
				t.Errorf("page size = %d, want 1", q.Page.PageSize)
			}
			if q.Query.Property != tt.property {
				t.Errorf("filter property = %q, want %q", q.Query.Property, tt.property)
			}
			if !slices.Equal(q.Sort, tt.sort) {
				t.Errorf("sort = %+v, want %+v", q.Sort, tt.sort)
			}
		})
	}
}

func TestResolver_ErrorsBecomeMarkers(t *testing.T) {
	repo := newFakeRepo()
	repo.errs[5] = errors.New("connection reset")
	r := NewResolver(repo, zaptest.NewLogger(t))

	got, err := r.Resolve(context.Background(), Reference{Kind: KindById, Value: "5"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !strings.HasPrefix(got, "<!--") || !strings.Contains(got, `"5"`) {
		t.Errorf("Resolve() = %q, want fallback marker", got)
	}
}

func TestResolver_SessionLoss(t *testing.T) {
	repo := newFakeRepo()
	repo.errs[5] = fmt.Errorf("unable to fetch asset 5: %w", session.ErrNoSession)
	r := NewResolver(repo, zaptest.NewLogger(t))

	_, err := r.Resolve(context.Background(), Reference{Kind: KindById, Value: "5"})
	if !errors.Is(err, session.ErrNoSession) {
		t.Errorf("Resolve() error = %v, want ErrNoSession", err)
	}
}

func TestResolver_Cancelled(t *testing.T) {
	repo := newFakeRepo(block(1, "a", "A", "a"))
	repo.errs[1] = context.Canceled
	r := NewResolver(repo, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Resolve(ctx, Reference{Kind: KindById, Value: "1"}); err == nil {
		t.Error("Resolve() expected error on cancelled context")
	}
}

func TestFallbackMarker(t *testing.T) {
	tests := []struct {
		name string
		ref  Reference
		want string
	}{
		{"plain", Reference{Kind: KindByKey, Value: "abc"}, `<!-- ContentBlockByKey "abc" could not be resolved -->`},
		{"closing comment", Reference{Kind: KindByName, Value: "x-->y"}, `<!-- ContentBlockByName "x- -&gt;y" could not be resolved -->`},
		{"dashes", Reference{Kind: KindByKey, Value: "a---b"}, `<!-- ContentBlockByKey "a- - -b" could not be resolved -->`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FallbackMarker(tt.ref)
			if got != tt.want {
				t.Errorf("FallbackMarker() = %q, want %q", got, tt.want)
			}
			inner := strings.TrimSuffix(strings.TrimPrefix(got, "<!--"), "-->")
			if strings.Contains(inner, "--") {
				t.Errorf("FallbackMarker() = %q breaks comment", got)
			}
		})
	}
}
