package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lobsterload/lobsterload/workload"
)

const metricPrefix = "lobsterload_"

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: metricPrefix + "requests_total",
		Help: "Completed requests by page kind and outcome",
	}, []string{"page", "outcome"})

	droppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: metricPrefix + "dropped_total",
		Help: "Requests dropped because all workers were busy at issue time",
	})

	generatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: metricPrefix + "generated_total",
		Help: "Requests produced by the generator by page kind",
	}, []string{"page"})
)

func countOutcome(page workload.PageKind, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	requestsTotal.WithLabelValues(page.String(), outcome).Inc()
}

// serveMetrics exposes the Prometheus registry over HTTP. It returns a
// shutdown function.
func serveMetrics(addr string, logger workload.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()

	return func() { _ = srv.Close() }
}
