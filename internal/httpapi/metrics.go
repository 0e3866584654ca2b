package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const unmatchedRoute = "unmatched"

type metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	settlements     *prometheus.CounterVec
	importedEntries prometheus.Counter
}

// newMetrics builds an isolated registry so several routers can coexist in one process.
func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(registry)
	return &metrics{
		registry: registry,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bookd_http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bookd_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"method", "route"}),
		settlements: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bookd_settlements_total",
			Help: "Matches settled, partitioned by winning side",
		}, []string{"side"}),
		importedEntries: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookd_imported_entries_total",
			Help: "Ledger entries created from CSV imports",
		}),
	}
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// middleware labels requests by route pattern to keep cardinality bounded.
func (m *metrics) middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		route := ctx.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		method := ctx.Request.Method
		m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
