package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opensurvey/monitor/internal/common/config"
)

// Metrics holds the prometheus registry and the instruments of the
// apiserver. A nil *Metrics is valid and records nothing, so callers never
// need to guard the disabled case.
type Metrics struct {
	registry   *prometheus.Registry
	namespace  string
	httpReqCnt *prometheus.CounterVec
	httpDur    *prometheus.HistogramVec
	httpInfl   *prometheus.GaugeVec
	syncCnt    *prometheus.CounterVec
	quotaCnt   prometheus.Counter
	quotaMatch prometheus.Counter
}

func New(cfg config.MetricsConfig) *Metrics {
	ns := cfg.Namespace
	r := prometheus.NewRegistry()
	// Register standard process and Go collectors
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	httpReqCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total"}, []string{"method", "route", "status"})
	httpDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "http_request_duration_seconds", Buckets: cfg.Buckets}, []string{"method", "route", "status"})
	httpInfl := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: "http_requests_inflight"}, []string{"route"})
	r.MustRegister(httpReqCnt, httpDur, httpInfl)

	syncCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "survey_records_ingested_total"}, []string{"outcome"})
	quotaCnt := prometheus.NewCounter(prometheus.CounterOpts{Namespace: ns, Name: "quota_counters_updated_total"})
	quotaMatch := prometheus.NewCounter(prometheus.CounterOpts{Namespace: ns, Name: "quota_rule_matches_total"})
	r.MustRegister(syncCnt, quotaCnt, quotaMatch)

	return &Metrics{
		registry:   r,
		namespace:  ns,
		httpReqCnt: httpReqCnt,
		httpDur:    httpDur,
		httpInfl:   httpInfl,
		syncCnt:    syncCnt,
		quotaCnt:   quotaCnt,
		quotaMatch: quotaMatch,
	}
}

// RecordIngested counts one synchronized record by outcome
// (inserted, duplicate, rejected).
func (m *Metrics) RecordIngested(outcome string) {
	if m == nil {
		return
	}
	m.syncCnt.WithLabelValues(outcome).Inc()
}

// QuotaUpdated counts one assignment whose quota counters changed
func (m *Metrics) QuotaUpdated() {
	if m == nil {
		return
	}
	m.quotaCnt.Inc()
}

// QuotaRuleMatches counts individual rule increments
func (m *Metrics) QuotaRuleMatches(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.quotaMatch.Add(float64(n))
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		m.httpInfl.WithLabelValues(route).Inc()
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		m.httpReqCnt.WithLabelValues(c.Request.Method, route, status).Inc()
		m.httpDur.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpInfl.WithLabelValues(route).Dec()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
