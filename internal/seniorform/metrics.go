package seniorform

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission results recorded by Metrics.
const (
	ResultSuccess  = "success"
	ResultInvalid  = "invalid"
	ResultFailed   = "failed"
	ResultInFlight = "in_flight"
)

// Metrics counts form submissions by result.
type Metrics struct {
	submissions *prometheus.CounterVec
}

// NewMetrics registers seniorcare_form_submissions_total on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		submissions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "seniorcare",
			Name:      "form_submissions_total",
			Help:      "Senior user form submissions broken down by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) observe(result string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(result).Inc()
}
