package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewsletterMetrics counts subscribe calls by outcome.
type NewsletterMetrics struct {
	subscribes *prometheus.CounterVec
}

// NewNewsletterMetrics registers the newsletter metrics on the provided registerer.
func NewNewsletterMetrics(reg prometheus.Registerer) *NewsletterMetrics {
	if reg == nil {
		return &NewsletterMetrics{}
	}
	subscribes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "newsletter_subscribe_total",
		Help:      "Newsletter subscribe requests by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(subscribes)
	return &NewsletterMetrics{subscribes: subscribes}
}

func (n *NewsletterMetrics) ObserveSubscribe(outcome string) {
	if n == nil || n.subscribes == nil {
		return
	}
	n.subscribes.WithLabelValues(normalizeLabel(outcome)).Inc()
}
