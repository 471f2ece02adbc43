package httpd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "crawldesk"
	metricsSubsystem = "console"
)

// Metrics holds the Prometheus instruments for the console server.
type Metrics struct {
	SessionsStarted  prometheus.Counter
	SessionsFinished *prometheus.CounterVec
	PostsCollected   prometheus.Counter
	SuggestLookups   prometheus.Counter
	EventSubscribers prometheus.Gauge
}

// NewMetrics creates and registers the console metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "sessions_started_total",
			Help:      "Total number of crawl sessions started",
		}),
		SessionsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "sessions_finished_total",
			Help:      "Total number of crawl sessions reaching a terminal state",
		}, []string{"state"}),
		PostsCollected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "posts_collected_total",
			Help:      "Total number of posts collected by completed sessions",
		}),
		SuggestLookups: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "suggest_lookups_total",
			Help:      "Total number of board autocomplete lookups served",
		}),
		EventSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "event_subscribers",
			Help:      "Currently connected event stream subscribers",
		}),
	}
}
