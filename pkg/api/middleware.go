package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pixelshare/pkg/errors"
	"github.com/matzehuels/pixelshare/pkg/observability"
	"github.com/matzehuels/pixelshare/pkg/session"
)

type sessionKey struct{}

// sessionFrom returns the session attached by requireSession.
func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey{}).(*session.Session)
	return sess
}

// logRequests reports every request to the HTTP hooks and the logger once
// the route pattern is known.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.HTTP()

		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		took := time.Since(start)

		hooks.OnResponse(r.Context(), r.Method, route, status, took)
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"took", took.Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// requireSession rejects requests without a live session and attaches the
// session to the request context.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.noAuth {
			ctx := context.WithValue(r.Context(), sessionKey{}, session.MockLocal())
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		id := sessionID(r)
		if id == "" {
			s.writeError(w, r, errors.New(errors.ErrCodeUnauthorized, "Unauthorized"))
			return
		}
		sess, err := s.sessions.Get(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if sess == nil {
			s.writeError(w, r, errors.New(errors.ErrCodeSessionExpired, "session expired or unknown"))
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionID reads a bearer token, falling back to the session cookie.
func sessionID(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if id, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(id)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
