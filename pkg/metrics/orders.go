package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// OrderMetrics counts checkout submissions.
type OrderMetrics struct {
	submissions *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_submissions_total",
		Help: "Checkout submissions by cart kind and result.",
	}, []string{"kind", "result"})
	reg.MustRegister(submissions)
	return &OrderMetrics{submissions: submissions}
}

// IncSubmission counts one submission of the given cart kind.
func (o *OrderMetrics) IncSubmission(kind string, err error) {
	if o == nil || o.submissions == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	o.submissions.WithLabelValues(normalizeLabel(kind), result).Inc()
}
