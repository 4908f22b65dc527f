package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		verificationsTotal,
		rateLimitedTotal,
		redemptionsTotal,
	)
}

var (
	verificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hospital_code_verifications_total",
			Help: "Verification requests by result tag ('valid', error tag, or 'bad_request').",
		},
		[]string{"result"},
	)

	rateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hospital_code_rate_limited_total",
			Help: "Verification requests denied by the rate limiter.",
		},
	)

	redemptionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hospital_code_redemptions_total",
			Help: "Successfully recorded code redemptions.",
		},
	)
)

func IncVerification(result string) {
	verificationsTotal.WithLabelValues(result).Inc()
}

func IncRateLimited() {
	rateLimitedTotal.Inc()
}

func IncRedemption() {
	redemptionsTotal.Inc()
}
