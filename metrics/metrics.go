// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

/*
Package metrics instruments subdomain scans with Prometheus metrics: lookups
by verdict, lookups in flight, and lookup durations. The metrics can be served
on a /metrics endpoint while a scan runs.
*/
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/siemens/subdig/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const namespace = "subdig"

// Collector collects the metrics of subdomain scans. A nil *Collector is
// valid and simply doesn't collect anything.
type Collector struct {
	registry   *prometheus.Registry
	candidates prometheus.Counter
	lookups    *prometheus.CounterVec
	inflight   prometheus.Gauge
	durations  prometheus.Histogram
}

// New returns a new Collector with its own registry, optionally including the
// Go runtime and process collectors.
func New(runtimeMetrics bool) *Collector {
	reg := prometheus.NewRegistry()
	if runtimeMetrics {
		reg.MustRegister(
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewGoCollector())
	}
	c := &Collector{
		registry: reg,
		candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Number of candidate names submitted for resolution.",
		}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Number of completed candidate lookups by verdict.",
		}, []string{"verdict"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lookups_in_flight",
			Help:      "Number of candidate lookups currently in progress.",
		}),
		durations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Duration of candidate lookups.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
	}
	reg.MustRegister(c.candidates, c.lookups, c.inflight, c.durations)
	return c
}

// Registry returns the registry the metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Submitted accounts for n more candidates.
func (c *Collector) Submitted(n int) {
	if c == nil {
		return
	}
	c.candidates.Add(float64(n))
}

// Track runs the specified lookup, accounting for it being in flight, its
// duration and finally its verdict.
func (c *Collector) Track(lookup func() types.Outcome) types.Outcome {
	if c == nil {
		return lookup()
	}
	c.inflight.Inc()
	start := time.Now()
	o := lookup()
	c.durations.Observe(time.Since(start).Seconds())
	c.inflight.Dec()
	c.lookups.WithLabelValues(o.Verdict.String()).Inc()
	return o
}

// Handler returns an HTTP handler serving the collected metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve the metrics on the /metrics endpoint of the specified listen address
// until the context is done.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("cannot serve metrics: %w", err)
	}
	return c.serve(ctx, l)
}

func (c *Collector) serve(ctx context.Context, l net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.WithField("addr", l.Addr().String()).Info("serving metrics")

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return fmt.Errorf("metrics server error: %w", err)
	}
}
