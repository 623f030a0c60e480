package usda

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "grocery",
		Subsystem: "usda",
		Name:      "requests_total",
		Help:      "FoodData Central requests by endpoint and outcome.",
	},
	[]string{"endpoint", "outcome"},
)

func observe(endpoint string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case isRateLimited(err):
		outcome = "rate_limited"
	case isNotFound(err):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	requestsTotal.WithLabelValues(endpoint, outcome).Inc()
}
