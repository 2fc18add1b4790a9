package runtime

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	renders        *prometheus.CounterVec
	cardsPerReply  prometheus.Histogram
	upstreamErrors *prometheus.CounterVec
	chatDuration   prometheus.Histogram
	ingested       *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "novachat",
			Name:      "renders_total",
			Help:      "Rendered assistant and user messages by render mode.",
		}, []string{"mode"}),
		cardsPerReply: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "novachat",
			Name:      "cards_per_reply",
			Help:      "Number of article cards extracted from replies rendered as a grid.",
			Buckets:   []float64{1, 2, 4, 8, 16},
		}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "novachat",
			Name:      "chat_upstream_errors_total",
			Help:      "Failed calls to the chat backend by kind.",
		}, []string{"kind"}),
		chatDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "novachat",
			Name:      "chat_upstream_seconds",
			Help:      "Latency of chat backend calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "novachat",
			Name:      "ingested_articles_total",
			Help:      "Feed entries handled by ingestion, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.renders, m.cardsPerReply, m.upstreamErrors, m.chatDuration, m.ingested)
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return m
}

// ObserveRender records a render decision.
func (m *Metrics) ObserveRender(mode string, articles int) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(mode).Inc()
	if articles > 0 {
		m.cardsPerReply.Observe(float64(articles))
	}
}

// ObserveChat records a chat backend call; kind is empty on success.
func (m *Metrics) ObserveChat(seconds float64, kind string) {
	if m == nil {
		return
	}
	m.chatDuration.Observe(seconds)
	if kind != "" {
		m.upstreamErrors.WithLabelValues(kind).Inc()
	}
}

// ObserveIngest records the outcome of one feed entry.
func (m *Metrics) ObserveIngest(outcome string) {
	if m == nil {
		return
	}
	m.ingested.WithLabelValues(outcome).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
