// ABOUTME: Router construction and middleware for the HTTP gateway
// ABOUTME: Recovery, CORS, correlation ids, request metrics and bearer auth

package gateway

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/2389/toolgate/internal/auth"
	"github.com/2389/toolgate/internal/config"
	"github.com/2389/toolgate/internal/correlation"
)

// CORS values sent on every response.
const (
	corsAllowOrigin  = "*"
	corsAllowHeaders = "authorization, x-client-info, apikey, content-type, x-correlation-id"
	corsAllowMethods = "GET, POST, OPTIONS"
)

func (g *Gateway) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(g.recoverer)
	r.Use(cors)
	r.Use(withCorrelationID)
	r.Use(g.observe)

	r.Get("/health", g.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(g.auth, g.logger, g.writeError))

		r.Get("/tools", g.handleListTools)
		r.Post("/invoke", g.handleInvoke)
		r.Post("/prompt", g.handlePrompt)
		r.Get("/resources", g.handleResources)

		if g.config.Metrics.Enabled {
			r.Handle(g.config.Metrics.Path, g.metrics.Handler())
		}
		if g.mcpServer != nil {
			r.Handle(g.config.MCP.Path, g.mcpServer.Handler())
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		g.writeErrorStatus(w, r, http.StatusNotFound, "route not found: "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		g.writeErrorStatus(w, r, http.StatusMethodNotAllowed, "method not allowed: "+r.Method+" "+r.URL.Path)
	})

	return r
}

// recoverer turns handler panics into a 500 carrying the correlation id.
func (g *Gateway) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			g.logger.Error("panic in handler",
				"path", r.URL.Path,
				"correlation_id", requestID(w, r),
				"panic", rec,
				"stack", string(debugStack()),
			)

			msg := "internal server error"
			if g.config.Mode == config.ModeMock {
				msg = fmt.Sprint(rec)
			}
			g.writeErrorStatus(w, r, http.StatusInternalServerError, msg)
		}()
		next.ServeHTTP(w, r)
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", corsAllowOrigin)
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withCorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := correlation.FromHeader(r.Header.Get(correlation.Header))
		w.Header().Set(correlation.Header, id)
		next.ServeHTTP(w, r.WithContext(correlation.WithID(r.Context(), id)))
	})
}

// observe records request metrics under the matched route pattern.
func (g *Gateway) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		g.metrics.ObserveHTTP(route, status)
		g.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start),
			"correlation_id", correlation.FromContext(r.Context()),
		)
	})
}
