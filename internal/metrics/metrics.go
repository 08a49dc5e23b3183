package metrics

import (
	"github.com/alterngenius/chatview/internal/chat"
	"github.com/alterngenius/chatview/internal/endpoint"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records chat submissions. It implements chat.Observer.
type Metrics struct {
	rejected  *prometheus.CounterVec
	completed *prometheus.CounterVec
	latency   prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatview",
			Name:      "submissions_rejected_total",
			Help:      "Submissions ignored because the input was empty or a request was in flight.",
		}, []string{"reason"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatview",
			Name:      "submissions_completed_total",
			Help:      "Submissions that reached the endpoint, by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chatview",
			Name:      "endpoint_latency_seconds",
			Help:      "Time spent waiting for the chat endpoint.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
	reg.MustRegister(m.rejected, m.completed, m.latency)
	return m
}

func (m *Metrics) ObserveRejected(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveCompleted(res chat.Result) {
	m.completed.WithLabelValues(outcome(res.Err)).Inc()
	m.latency.Observe(res.Latency.Seconds())
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var epErr *endpoint.Error
	if errors.As(err, &epErr) && !epErr.Transport() {
		return "http_error"
	}
	return "transport_error"
}

var _ chat.Observer = (*Metrics)(nil)
