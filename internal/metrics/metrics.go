// Package metrics exposes the server's Prometheus collectors.
package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	Intents         *prometheus.CounterVec
	IntentsAbsorbed *prometheus.CounterVec
	SessionsActive  prometheus.Gauge
	SnapshotsSaved  prometheus.Counter
	SaveErrors      prometheus.Counter
	LiveClients     prometheus.Gauge
	RequestDuration *prometheus.HistogramVec
}

// New registers every collector on a fresh registry, so several instances can
// live side by side in tests.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Intents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mydraft_intents_total",
			Help: "Intents dispatched, by kind",
		}, []string{"kind"}),
		IntentsAbsorbed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mydraft_intents_absorbed_total",
			Help: "Diagram intents rejected without effect, by kind",
		}, []string{"kind"}),
		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "mydraft_sessions_active",
			Help: "Editing sessions held in memory",
		}),
		SnapshotsSaved: f.NewCounter(prometheus.CounterOpts{
			Name: "mydraft_snapshots_saved_total",
			Help: "Diagram snapshots written to storage",
		}),
		SaveErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "mydraft_snapshot_save_errors_total",
			Help: "Snapshot writes that failed",
		}),
		LiveClients: f.NewGauge(prometheus.GaugeOpts{
			Name: "mydraft_live_clients",
			Help: "Connected websocket clients",
		}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mydraft_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records the latency of every routed request under its route
// template, keeping label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.RequestDuration.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack keeps websocket upgrades working behind the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("%T does not support hijacking", r.ResponseWriter)
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}
