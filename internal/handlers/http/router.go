package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouterConfig holds what NewRouter mounts.
type RouterConfig struct {
	ServiceID   string
	Samples     SampleReader
	Metrics     http.Handler   // Prometheus handler; /metrics is not mounted when nil
	Middlewares []func(http.Handler) http.Handler
}

// SampleReader is everything the sample routes need from storage.
type SampleReader interface {
	Lister
	LatestGetter
	Pinger
}

// NewRouter builds the agent's HTTP API.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	for _, mw := range cfg.Middlewares {
		r.Use(mw)
	}

	r.Get("/ping", NewPingHandler(cfg.Samples))
	r.Route("/samples/{kind}", func(r chi.Router) {
		r.Get("/", NewSampleListHandler(cfg.Samples, cfg.ServiceID))
		r.Get("/latest", NewSampleLatestHandler(cfg.Samples, cfg.ServiceID))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	return r
}
