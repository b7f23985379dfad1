package content

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxDepth limits number of resolution rounds.
const DefaultMaxDepth = 5

// Compiled is result of recursive resolution.
type Compiled struct {
	HTML string
	// number of extraction and resolution rounds performed
	Rounds int
	// references left in HTML when depth limit was reached
	Unresolved []Reference
}

// Compiler resolves nested content block references. Every round extracts
// references from current HTML, resolves them concurrently and splices the
// results in. Depth limit guarantees termination on reference cycles.
type Compiler struct {
	resolver    BlockResolver
	concurrency int
	log         *zap.Logger
}

func NewCompiler(resolver BlockResolver, concurrency int, log *zap.Logger) *Compiler {
	return &Compiler{
		resolver:    resolver,
		concurrency: max(concurrency, 1),
		log:         log.Named("compiler"),
	}
}

// Compile resolves up to maxDepth rounds. Exhausting the depth is not an
// error, remaining references are reported in result. Resolved fragments are
// cached for the duration of this call only.
func (c *Compiler) Compile(ctx context.Context, text string, maxDepth int) (*Compiled, error) {
	cache := newFragmentCache(c.resolver)

	res := &Compiled{HTML: text}
	for range max(maxDepth, 0) {
		refs := ExtractReferences(res.HTML)
		if len(refs) == 0 {
			return res, nil
		}
		fragments, err := c.resolveAll(ctx, cache, refs)
		if err != nil {
			return nil, err
		}
		res.HTML = splice(res.HTML, refs, fragments)
		res.Rounds++
		c.log.Debug("Resolution round completed", zap.Int("round", res.Rounds), zap.Int("references", len(refs)), zap.Int("cached", cache.size()))
	}

	if res.Unresolved = ExtractReferences(res.HTML); len(res.Unresolved) > 0 {
		c.log.Warn("Depth limit reached, some content blocks left unresolved",
			zap.Int("depth", maxDepth), zap.Int("unresolved", len(res.Unresolved)), zap.Stringer("first", res.Unresolved[0]))
	}
	return res, nil
}

func (c *Compiler) resolveAll(ctx context.Context, cache *fragmentCache, refs []Reference) ([]string, error) {
	fragments := make([]string, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			s, err := cache.get(gctx, ref)
			if err != nil {
				return err
			}
			fragments[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fragments, nil
}

// fragmentCache memoizes resolved fragments and collapses concurrent
// requests for the same reference.
type fragmentCache struct {
	resolver BlockResolver
	group    singleflight.Group

	mu   sync.Mutex
	done map[refKey]string
}

func newFragmentCache(resolver BlockResolver) *fragmentCache {
	return &fragmentCache{resolver: resolver, done: make(map[refKey]string)}
}

func (fc *fragmentCache) get(ctx context.Context, ref Reference) (string, error) {
	k := ref.key()

	fc.mu.Lock()
	s, ok := fc.done[k]
	fc.mu.Unlock()
	if ok {
		return s, nil
	}

	v, err, _ := fc.group.Do(k.kind.String()+"\x00"+k.value, func() (any, error) {
		fc.mu.Lock()
		s, ok := fc.done[k]
		fc.mu.Unlock()
		if ok {
			return s, nil
		}
		s, err := fc.resolver.Resolve(ctx, ref)
		if err != nil {
			return "", err
		}
		fc.mu.Lock()
		fc.done[k] = s
		fc.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (fc *fragmentCache) size() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return len(fc.done)
}
