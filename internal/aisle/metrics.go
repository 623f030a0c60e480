package aisle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// classificationsTotal counts resolved aisles by the rule that produced them.
var classificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "grocery",
		Subsystem: "aisle",
		Name:      "classifications_total",
		Help:      "Aisle classifications by source (override, remote, fallback, skipped).",
	},
	[]string{"source"},
)
