package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager 管理全部 Prometheus 指标
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	rankingsCreated *prometheus.CounterVec
	rankingsDeleted prometheus.Counter
	rankingsUpdated prometheus.Counter
	likes           prometheus.Counter
	comments        prometheus.Counter
	followOps       *prometheus.CounterVec
	repairs         *prometheus.CounterVec
	catalogQueries  *prometheus.CounterVec
	events          *prometheus.CounterVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// 默认使用独立 registry，不暴露 Go 运行时指标
var (
	customRegistry = prometheus.NewRegistry()
	globalManager  = NewManager(WithPrometheusRegistry(customRegistry))
)

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rankify",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.rankingsCreated = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "rankings_created_total",
		Help:      "Rankings created, by category",
	}, []string{"category"})
	m.rankingsDeleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "rankings_deleted_total",
		Help:      "Rankings deleted by their owners",
	})
	m.rankingsUpdated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "rankings_updated_total",
		Help:      "Ranking content or item order changes",
	})
	m.likes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "likes_total",
		Help:      "Like increments applied",
	})
	m.comments = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "comments_total",
		Help:      "Comments appended",
	})
	m.followOps = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "follow_operations_total",
		Help:      "Follow graph mutations by operation and outcome",
	}, []string{"op", "outcome"})
	m.repairs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "follow_repairs_total",
		Help:      "Follow edge repairs by source and result",
	}, []string{"source", "result"})
	m.catalogQueries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "catalog_queries_total",
		Help:      "Catalog page queries by mode",
	}, []string{"mode"})
	m.events = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "domain_events_total",
		Help:      "Domain events published or consumed",
	}, []string{"direction", "type", "result"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

func RecordRankingCreated(category string) {
	globalManager.rankingsCreated.WithLabelValues(category).Inc()
}

func RecordRankingDeleted() {
	globalManager.rankingsDeleted.Inc()
}

func RecordRankingUpdated() {
	globalManager.rankingsUpdated.Inc()
}

func RecordLike() {
	globalManager.likes.Inc()
}

func RecordComment() {
	globalManager.comments.Inc()
}

// RecordFollowOp op 为 follow/unfollow，outcome 为 applied/noop/partial/error
func RecordFollowOp(op, outcome string) {
	globalManager.followOps.WithLabelValues(op, outcome).Inc()
}

func RecordRepair(source, result string) {
	globalManager.repairs.WithLabelValues(source, result).Inc()
}

func RecordCatalogQuery(mode string) {
	globalManager.catalogQueries.WithLabelValues(mode).Inc()
}

func RecordEvent(direction, eventType, result string) {
	globalManager.events.WithLabelValues(direction, eventType, result).Inc()
}

func RecordHTTPRequest(endpoint, method, statusCode string, seconds float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}

// GetRegistry 返回 /metrics 使用的 registry
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
