// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics exposes Prometheus instrumentation for HTTP traffic and the
security controls.

All collectors live in a private registry owned by [Metrics], so tests can
build as many instances as they like. Every recording method is safe to call
on a nil *Metrics.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taibuivan/crewdesk/internal/platform/constants"
)

// Metrics owns the registry and every collector the server records into.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	rateLimitBlocked *prometheus.CounterVec
	signInFailures   prometheus.Counter
	lockoutsEngaged  prometheus.Counter
	captchaRejected  *prometheus.CounterVec
}

// New creates and registers all collectors, plus the Go runtime and process collectors.
func New() *Metrics {
	namespace := constants.AppName

	m := &Metrics{
		registry: prometheus.NewRegistry(),

		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		rateLimitBlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_blocked_total",
			Help:      "Requests refused by a fixed-window rate limit.",
		}, []string{"bucket"}),
		signInFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_signin_failures_total",
			Help:      "Failed credential sign-in attempts.",
		}),
		lockoutsEngaged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_lockouts_total",
			Help:      "Accounts locked after repeated sign-in failures.",
		}),
		captchaRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "captcha_rejected_total",
			Help:      "CAPTCHA verifications that did not pass.",
		}, []string{"reason"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpInFlight,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.rateLimitBlocked,
		m.signInFailures,
		m.lockoutsEngaged,
		m.captchaRejected,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry. Used by tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// # HTTP Instrumentation

/*
Instrument records in-flight, count and latency for every request.

The route label is the chi route pattern, so /api/events/{eventID} is one
series regardless of the ID. Requests that match no route share "unmatched".
*/
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		start := time.Now()
		recorder := &statusWriter{ResponseWriter: writer, code: http.StatusOK}
		next.ServeHTTP(recorder, request)

		route := "unmatched"
		if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := strconv.Itoa(recorder.code)
		m.httpRequestDuration.WithLabelValues(request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(request.Method, route, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// # Security Counters

// RateLimitBlocked counts a refusal in bucket.
func (m *Metrics) RateLimitBlocked(bucket string) {
	if m == nil {
		return
	}
	m.rateLimitBlocked.WithLabelValues(bucket).Inc()
}

// SignInFailed counts one failed credential sign-in.
func (m *Metrics) SignInFailed() {
	if m == nil {
		return
	}
	m.signInFailures.Inc()
}

// LockoutEngaged counts one account lock.
func (m *Metrics) LockoutEngaged() {
	if m == nil {
		return
	}
	m.lockoutsEngaged.Inc()
}

// CaptchaRejected counts one failed verification, labelled by reason.
func (m *Metrics) CaptchaRejected(reason string) {
	if m == nil {
		return
	}
	m.captchaRejected.WithLabelValues(reason).Inc()
}
