package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/taxotree/pkg/explorer"
)

type ctxKey int

const sessionKey ctxKey = 0

// requestLogger logs each request and records it in the metrics registry
// under its route pattern.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)

		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", d,
			"request_id", middleware.GetReqID(r.Context()))
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.RecordHTTPRequest(r.Method, route, status, d)
		}
	})
}

// withSession attaches the caller's explorer session to the request
// context. New sessions start at the configured default root.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, created := s.sessions.get(w, r)
		if created {
			if s.cfg.Metrics != nil {
				s.cfg.Metrics.ActiveSessions.Set(float64(s.sessions.len()))
			}
			if s.cfg.DefaultRoot != "" {
				if _, err := sess.Select(r.Context(), s.cfg.DefaultRoot); err != nil {
					s.logger.Warn("default root unavailable", "id", s.cfg.DefaultRoot, "err", err)
				}
			}
		}
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) *explorer.Session {
	return r.Context().Value(sessionKey).(*explorer.Session)
}
