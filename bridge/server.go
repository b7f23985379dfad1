// Package bridge exposes content repository and compiler over local HTTP
// for browser side tooling. Every response is wrapped into the same envelope
// the browser extension message router uses.
package bridge

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"mcsave/config"
	"mcsave/content"
	"mcsave/mcapi"
	"mcsave/session"
)

// Sessions checks authenticated session.
type Sessions interface {
	Credential(ctx context.Context, stack string) (*session.Credential, error)
}

// Backend is content repository of a single stack.
type Backend interface {
	content.Repository
	content.ImageFetcher
	Categories(ctx context.Context) ([]mcapi.Category, error)
	AssetsByCategory(ctx context.Context, categoryID int64, types []int) (*mcapi.QueryResult, error)
}

// Options are server defaults, request parameters override them.
type Options struct {
	Stack       string
	AssetTypes  []int
	Compile     content.Options
	Concurrency int
}

type Server struct {
	sessions Sessions
	backend  func(stack string) Backend
	opts     Options
	router   chi.Router
	log      *zap.Logger
}

// NewServer creates bridge, backend returns repository for requested stack.
func NewServer(sessions Sessions, backend func(stack string) Backend, opts Options, log *zap.Logger) *Server {
	s := &Server{
		sessions: sessions,
		backend:  backend,
		opts:     opts,
		log:      log.Named("bridge"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", s.handleSession)
		r.Get("/categories", s.handleCategories)
		r.Get("/categories/{id}/assets", s.handleCategoryAssets)
		r.Get("/assets/{id}", s.handleAsset)
		r.Get("/assets/{id}/compiled", s.handleCompiled)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.fail(w, r, http.StatusNotFound, errors.New("unknown endpoint: "+r.URL.Path))
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// envelope is shape of every response.
type envelope struct {
	Success        bool   `json:"success"`
	Data           any    `json:"data,omitempty"`
	Error          string `json:"error,omitempty"`
	HasSession     *bool  `json:"hasSession,omitempty"`
	BusinessUnitID string `json:"businessUnitId,omitempty"`
}

func (s *Server) ok(w http.ResponseWriter, r *http.Request, data any) {
	render.JSON(w, r, &envelope{Success: true, Data: data})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.log.Debug("Request failed", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	render.Status(r, status)
	render.JSON(w, r, &envelope{Error: err.Error()})
}

// failErr maps error to response status.
func (s *Server) failErr(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNoSession):
		status = http.StatusUnauthorized
	case errors.Is(err, mcapi.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	s.fail(w, r, status, err)
}

func (s *Server) stack(r *http.Request) string {
	if st := r.URL.Query().Get("stack"); len(st) > 0 {
		return session.NormalizeStack(st)
	}
	return s.opts.Stack
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	has := true
	env := &envelope{Success: true, HasSession: &has}

	cred, err := s.sessions.Credential(r.Context(), s.stack(r))
	if err != nil {
		// not having session is normal answer here
		has = false
		env.Error = err.Error()
	} else {
		env.BusinessUnitID = cred.TenantID
	}
	render.JSON(w, r, env)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.backend(s.stack(r)).Categories(r.Context())
	if err != nil {
		s.failErr(w, r, err)
		return
	}
	s.ok(w, r, categories)
}

func (s *Server) handleCategoryAssets(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	types, err := parseTypes(r.URL.Query().Get("types"), s.opts.AssetTypes)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	res, err := s.backend(s.stack(r)).AssetsByCategory(r.Context(), id, types)
	if err != nil {
		s.failErr(w, r, err)
		return
	}
	s.ok(w, r, res.Items)
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	asset, err := s.backend(s.stack(r)).FetchByID(r.Context(), id)
	if err != nil {
		s.failErr(w, r, err)
		return
	}
	s.ok(w, r, asset)
}

// compiledView is compiled asset as returned to the browser, images are
// inlined as base64.
type compiledView struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	CustomerKey string              `json:"customerKey,omitempty"`
	HTML        string              `json:"html"`
	Rounds      int                 `json:"rounds"`
	Unresolved  []content.Reference `json:"unresolved,omitempty"`
	Images      []imageView         `json:"images,omitempty"`
}

type imageView struct {
	content.ImageArtifact
	Data []byte `json:"data"`
}

func (s *Server) handleCompiled(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	opts := s.opts.Compile
	q := r.URL.Query()
	if opts.ResolveBlocks, err = queryBool(q.Get("resolve"), opts.ResolveBlocks); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	if opts.IncludeImages, err = queryBool(q.Get("images"), opts.IncludeImages); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	b := s.backend(s.stack(r))
	ca, err := content.NewEngine(b, b, s.opts.Concurrency, s.log).CompileAsset(r.Context(), id, opts)
	if err != nil {
		s.failErr(w, r, err)
		return
	}

	view := &compiledView{
		ID:          ca.ID,
		Name:        ca.Name,
		CustomerKey: ca.CustomerKey,
		HTML:        ca.HTML,
		Rounds:      ca.Rounds,
		Unresolved:  ca.Unresolved,
	}
	for _, img := range ca.Images {
		view.Images = append(view.Images, imageView{ImageArtifact: img, Data: img.Data})
	}
	s.ok(w, r, view)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func(start time.Time) {
			s.log.Debug("Request served",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.String("request", middleware.GetReqID(r.Context())),
				zap.Duration("elapsed", time.Since(start)))
		}(time.Now())
		next.ServeHTTP(ww, r)
	})
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("bad id: " + raw)
	}
	return id, nil
}

// parseTypes accepts comma separated numeric ids or type names.
func parseTypes(raw string, def []int) ([]int, error) {
	if len(strings.TrimSpace(raw)) == 0 {
		return def, nil
	}
	var types []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if len(part) == 0 {
			continue
		}
		if id, err := strconv.Atoi(part); err == nil {
			types = append(types, id)
			continue
		}
		t, err := config.ParseAssetType(part)
		if err != nil {
			return nil, err
		}
		types = append(types, t.ID())
	}
	return types, nil
}

func queryBool(raw string, def bool) (bool, error) {
	if len(raw) == 0 {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.New("bad boolean value: " + raw)
	}
	return v, nil
}
