package diag

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"finance/internal/log"
	"finance/internal/resolver"
)

type errorResponse struct {
	Error string `json:"error"`
}

type resolveResponse struct {
	Key  resolver.RouteKey `json:"key"`
	Path string            `json:"path"`
	URL  string            `json:"url"`
}

type routesResponse struct {
	BaseURL string                   `json:"base_url"`
	Routes  []resolver.ResolvedRoute `json:"routes"`
}

func toJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
	defer cancel()
	for _, rc := range s.ready {
		if err := rc.Ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleListRoutes(w http.ResponseWriter, r *http.Request) {
	routes := s.resolver.Snapshot(r.Context())
	if routes == nil {
		routes = []resolver.ResolvedRoute{}
	}
	toJSON(w, http.StatusOK, routesResponse{BaseURL: s.resolver.BaseURL(), Routes: routes})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	key, ok := routeKeyParam(w, r)
	if !ok {
		return
	}
	path, err := s.resolver.Resolve(r.Context(), key)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, resolver.ErrNoBaseURL) {
			status = http.StatusServiceUnavailable
		}
		toJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	toJSON(w, http.StatusOK, resolveResponse{Key: key, Path: path, URL: s.resolver.BaseURL() + path})
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	key, ok := routeKeyParam(w, r)
	if !ok {
		return
	}
	if err := s.resolver.Invalidate(r.Context(), key); err != nil {
		toJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.resolver.Reset(r.Context()); err != nil {
		toJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func routeKeyParam(w http.ResponseWriter, r *http.Request) (resolver.RouteKey, bool) {
	key, err := resolver.ParseRouteKey(chi.URLParam(r, "key"))
	if err != nil {
		toJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return "", false
	}
	return key, true
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Route mutation rate limited",
		log.FieldPath, r.URL.Path)
	toJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
}
