// Package httpapi exposes a property collection over HTTP.
//
// Routes:
//
//	GET  /props          all properties, sorted by name
//	GET  /props/{name}   one property
//	PUT  /props/{name}   set from the text request body
//	GET  /watch          websocket change feed
//	GET  /reactor        reactor state
//	POST /sync           wait for the reactor to catch up
//	GET  /metrics        Prometheus metrics
package httpapi

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/prop/internal/errors"
	"github.com/vango-dev/prop/pkg/prop"
	"github.com/vango-dev/prop/pkg/propset"
	"github.com/vango-dev/prop/pkg/propws"
	"github.com/vango-dev/prop/pkg/reactor"
	"github.com/vango-dev/prop/pkg/typeid"
)

// maxBodyBytes bounds PUT bodies.
const maxBodyBytes = 64 << 10

// Config wires the router to its collaborators.
type Config struct {
	// Props is the served collection. Required.
	Props *propset.Collection

	// Reactor backs /sync and /reactor. Default: reactor.Default().
	Reactor *reactor.Reactor

	// Hub serves /watch. Nil disables the route.
	Hub *propws.Hub

	// Gatherer serves /metrics. Nil disables the route.
	Gatherer prometheus.Gatherer

	// SyncTimeout bounds POST /sync. Default: 5s.
	SyncTimeout time.Duration

	// Logger logs requests. Default: slog.Default().
	Logger *slog.Logger
}

// PropertyView is the JSON form of a property.
type PropertyView struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	TypeID uint32 `json:"typeId"`
	Value  string `json:"value"`
}

// ReactorView is the JSON form of the reactor state.
type ReactorView struct {
	Name    string `json:"name"`
	State   string `json:"state"`
	Pending int    `json:"pending"`
}

type api struct {
	cfg Config
}

// NewRouter builds the HTTP handler.
func NewRouter(cfg Config) http.Handler {
	if cfg.Reactor == nil {
		cfg.Reactor = reactor.Default()
	}
	if cfg.SyncTimeout <= 0 {
		cfg.SyncTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default().With("component", "httpapi")
	}
	a := &api{cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(a.logRequests)

	r.Get("/props", a.listProps)
	r.Get("/props/{name}", a.getProp)
	r.Put("/props/{name}", a.putProp)
	r.Get("/reactor", a.reactorState)
	r.Post("/sync", a.sync)

	if cfg.Hub != nil {
		r.Get("/watch", cfg.Hub.HandleWebSocket)
	}
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (a *api) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.cfg.Logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

func view(name string, p prop.Property) PropertyView {
	id := p.TypeID()
	return PropertyView{
		Name:   name,
		Type:   typeid.Name(id),
		TypeID: uint32(id),
		Value:  p.Text(),
	}
}

func (a *api) listProps(w http.ResponseWriter, r *http.Request) {
	views := make([]PropertyView, 0, a.cfg.Props.Len())
	a.cfg.Props.Range(func(name string, p prop.Property) bool {
		views = append(views, view(name, p))
		return true
	})
	writeJSON(w, http.StatusOK, views)
}

func (a *api) getProp(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	p, ok := a.cfg.Props.Lookup(name)
	if !ok {
		a.writeError(w, r, errors.New("E001").WithDetailf("%q", name).Wrap(propset.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, view(name, p))
}

func (a *api) putProp(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	p, ok := a.cfg.Props.Lookup(name)
	if !ok {
		a.writeError(w, r, errors.New("E001").WithDetailf("%q", name).Wrap(propset.ErrNotFound))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		a.writeError(w, r, errors.New("E030").Wrap(err))
		return
	}
	if err := p.SetText(string(body)); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view(name, p))
}

func (a *api) reactorState(w http.ResponseWriter, r *http.Request) {
	rx := a.cfg.Reactor
	writeJSON(w, http.StatusOK, ReactorView{
		Name:    rx.Name(),
		State:   rx.State().String(),
		Pending: rx.Pending(),
	})
}

func (a *api) sync(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), a.cfg.SyncTimeout)
	defer cancel()

	if err := a.cfg.Reactor.SyncContext(ctx); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.reactorState(w, r)
}

// statusOf maps an error code to an HTTP status.
func statusOf(err error) int {
	switch errors.CodeOf(err) {
	case "E001":
		return http.StatusNotFound
	case "E030", "E031":
		return http.StatusBadRequest
	case "E050":
		return http.StatusServiceUnavailable
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	pe := errors.FromError(err, "E160")
	status := statusOf(err)
	a.cfg.Logger.Debug("request failed",
		"path", r.URL.Path,
		"status", status,
		"error", pe.FormatCompact())
	writeJSON(w, status, pe.JSON())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
