// Package api serves the dashboard's CRUD and auth endpoints: manual
// levels, indicator settings, emission settings and login.
package api

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"indicator-dashboard/internal/auth"
	"indicator-dashboard/internal/metrics"
	"indicator-dashboard/internal/model"
	"indicator-dashboard/internal/normalize"
)

// Publisher pushes configuration changes to Redis.
type Publisher interface {
	PublishLevels(ctx context.Context, levels []model.ManualLevel) error
	PublishEmission(ctx context.Context, s model.EmissionSettings) error
}

// Deps are the collaborators of the API handlers. Metrics may be nil.
type Deps struct {
	Levels        model.LevelStore
	Settings      model.SettingsStore
	Auth          *auth.Authenticator
	Publisher     Publisher
	Catalog       *normalize.Catalog
	Metrics       *metrics.Metrics
	EnforceAccess bool
}

type handlers struct {
	Deps
}

// Register mounts the API routes on r. Routes already on r keep precedence
// and do not pass through the API middleware.
func Register(r *mux.Router, d Deps) {
	if d.Catalog == nil {
		d.Catalog = normalize.DefaultCatalog()
	}
	h := &handlers{Deps: d}

	// The middleware stays on a subrouter so routes mounted on r by other
	// packages, such as the /ws upgrade, are served unwrapped.
	sub := r.NewRoute().Subrouter()
	sub.Use(CORS, Instrument(d.Metrics), d.Auth.Middleware)

	admin := auth.RequireAccess(model.AccessAdmin, d.EnforceAccess)
	user := auth.RequireAccess(model.AccessUser, d.EnforceAccess)

	sub.Handle("/symbols", user(http.HandlerFunc(h.listLevels))).Methods(http.MethodGet)
	sub.Handle("/symbols", admin(http.HandlerFunc(h.createLevel))).Methods(http.MethodPost)
	sub.Handle("/symbols/{id}", admin(http.HandlerFunc(h.updateLevel))).Methods(http.MethodPut)
	sub.Handle("/symbols/{id}", admin(http.HandlerFunc(h.deleteLevel))).Methods(http.MethodDelete)

	sub.Handle("/indicators/settings", user(http.HandlerFunc(h.getSettings))).Methods(http.MethodGet)
	sub.Handle("/indicators/settings", admin(http.HandlerFunc(h.saveSettings))).Methods(http.MethodPost)
	sub.Handle("/indicators/emission-settings", user(http.HandlerFunc(h.getEmission))).Methods(http.MethodGet)
	sub.Handle("/indicators/emission-settings", admin(http.HandlerFunc(h.saveEmission))).Methods(http.MethodPost)

	sub.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)
	sub.HandleFunc("/auth/logout", h.logout).Methods(http.MethodPost)

	// Preflight for every path above.
	sub.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

// NewRouter returns a router with only the API routes.
func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()
	Register(r, d)
	return r
}

// CORS sets permissive CORS headers.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Session-Token")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// Hijack lets protocol upgrades through the recorder.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("api: response writer does not support hijacking")
	}
	s.code = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// Instrument records request counts and latency by route template.
func Instrument(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := "unmatched"
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			m.ObserveHTTP(route, r.Method, rec.code, time.Since(start))
		})
	}
}
