package metrics

import "github.com/prometheus/client_golang/prometheus"

// CartMetrics counts cart mutations by outcome and transient-conflict retries.
type CartMetrics struct {
	mutations *prometheus.CounterVec
	retries   *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_mutations_total",
		Help:      "Cart mutations by operation and outcome.",
	}, []string{"op", "outcome"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_conflict_retries_total",
		Help:      "Cart operations retried after a transient store conflict.",
	}, []string{"op"})
	reg.MustRegister(mutations, retries)
	return &CartMetrics{mutations: mutations, retries: retries}
}

func (c *CartMetrics) ObserveMutation(op, outcome string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

func (c *CartMetrics) ObserveConflictRetry(op string) {
	if c == nil || c.retries == nil {
		return
	}
	c.retries.WithLabelValues(normalizeLabel(op)).Inc()
}
