package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus registry for the server. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	salesOpened     prometheus.Counter
	itemsAppended   prometheus.Counter
	salesFinalized  prometheus.Counter
	reportLookups   *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "posledger_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "posledger_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	opened := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "posledger_sales_opened_total",
		Help: "Sales opened.",
	})
	appended := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "posledger_sale_items_appended_total",
		Help: "Items appended to sales.",
	})
	finalized := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "posledger_sales_finalized_total",
		Help: "Finalize calls that stored a total.",
	})
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "posledger_report_lookups_total",
		Help: "Sales report requests by cache outcome.",
	}, []string{"cache"})
	registry.MustRegister(requests, duration, opened, appended, finalized, lookups)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		salesOpened:     opened,
		itemsAppended:   appended,
		salesFinalized:  finalized,
		reportLookups:   lookups,
	}
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records count and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) SaleOpened() {
	if m != nil {
		m.salesOpened.Inc()
	}
}

func (m *Metrics) ItemAppended() {
	if m != nil {
		m.itemsAppended.Inc()
	}
}

func (m *Metrics) SaleFinalized() {
	if m != nil {
		m.salesFinalized.Inc()
	}
}

// ReportLookup counts a report request as a cache "hit" or "miss".
func (m *Metrics) ReportLookup(hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.reportLookups.WithLabelValues(outcome).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
