// Package api serves the pixelshare REST API.
//
// Routes:
//
//	GET    /healthz
//	GET    /api/me                              current session
//	GET    /api/drawings                        list the caller's drawings
//	POST   /api/drawings                        create
//	GET    /api/drawings/{id}                   load
//	PUT    /api/drawings/{id}                   update
//	DELETE /api/drawings/{id}                   delete
//	GET    /api/drawings/{id}/preview.{format}  render a stored drawing
//	POST   /api/share                           drawing -> share token and URL
//	GET    /api/share?drawing=<token>           share token -> drawing
//	GET    /api/share/preview.{format}?drawing=<token>
//
// Drawing routes require a session, passed as "Authorization: Bearer <id>" or
// in the pixelshare_session cookie, and only expose drawings the session's
// user owns. Share routes are public. Errors are JSON objects of the form
// {"error": message, "code": CODE} with the status given by
// errors.HTTPStatus.
package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pixelshare/pkg/cache"
	"github.com/matzehuels/pixelshare/pkg/preview"
	"github.com/matzehuels/pixelshare/pkg/session"
	"github.com/matzehuels/pixelshare/pkg/store"
	"github.com/matzehuels/pixelshare/pkg/transport"
)

// maxBodyBytes bounds request bodies. A full 256x256 canvas in JSON is well
// under this.
const maxBodyBytes = 4 << 20

// SessionCookie is the cookie carrying a session ID.
const SessionCookie = "pixelshare_session"

// Server holds the API's collaborators. Build one with [New] and mount
// [Server.Handler].
type Server struct {
	drawings store.Store
	sessions session.Store
	cache    cache.Cache
	keyer    cache.Keyer
	codec    *transport.Codec
	logger   *log.Logger

	baseURL    string
	noAuth     bool
	maxSize    float64
	gridLines  bool
	tokenTTL   time.Duration
	previewTTL time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithCache sets the cache for decoded tokens and rendered previews.
func WithCache(c cache.Cache) Option { return func(s *Server) { s.cache = c } }

// WithKeyer sets how cache keys are derived.
func WithKeyer(k cache.Keyer) Option { return func(s *Server) { s.keyer = k } }

// WithCodec sets the share-token codec.
func WithCodec(c *transport.Codec) Option { return func(s *Server) { s.codec = c } }

// WithLogger sets the request and error logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithBaseURL sets the front-end URL that share links point at.
func WithBaseURL(u string) Option { return func(s *Server) { s.baseURL = u } }

// WithNoAuth treats every request as the local user.
func WithNoAuth(on bool) Option { return func(s *Server) { s.noAuth = on } }

// WithPreviewDefaults sets the preview size and grid lines used when a
// request does not specify them.
func WithPreviewDefaults(maxSize float64, gridLines bool) Option {
	return func(s *Server) {
		s.maxSize = maxSize
		s.gridLines = gridLines
	}
}

// WithCacheTTLs sets how long decoded tokens and previews are cached.
func WithCacheTTLs(token, preview time.Duration) Option {
	return func(s *Server) {
		s.tokenTTL = token
		s.previewTTL = preview
	}
}

// New returns a server over the given stores. Without options it caches
// nothing and logs to log.Default().
func New(drawings store.Store, sessions session.Store, opts ...Option) *Server {
	s := &Server{
		drawings:   drawings,
		sessions:   sessions,
		cache:      cache.NewNullCache(),
		keyer:      cache.NewDefaultKeyer(),
		codec:      transport.New(),
		logger:     log.Default(),
		baseURL:    "http://localhost:8080/",
		maxSize:    preview.DefaultMaxSize,
		gridLines:  true,
		tokenTTL:   cache.TokenTTL,
		previewTTL: cache.PreviewTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeMessage(w, r, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeMessage(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/share", func(r chi.Router) {
			r.Post("/", s.handleShareCreate)
			r.Get("/", s.handleShareResolve)
			r.Get("/preview.{format}", s.handleSharePreview)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/me", s.handleMe)
			r.Route("/drawings", func(r chi.Router) {
				r.Get("/", s.handleList)
				r.Post("/", s.handleCreate)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGet)
					r.Put("/", s.handleUpdate)
					r.Delete("/", s.handleDelete)
					r.Get("/preview.{format}", s.handleDrawingPreview)
				})
			})
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
