// Package httpserver builds the ops HTTP server exposing health probes and
// prometheus metrics.
package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aktivitetskrav/internal/platform/health"
)

// NewOps builds the ops server with health probes and the metrics endpoint.
func NewOps(addr string, healthHandler *health.Handler) *http.Server {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	healthHandler.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
