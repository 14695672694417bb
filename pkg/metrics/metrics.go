// Package metrics exposes Prometheus metrics for forecast and rules traffic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for the service
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// ForecastRequestsTotal counts forecast queries by bucket and outcome
// (ok, invalid, error).
var ForecastRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "capacity",
	Name:      "forecast_requests_total",
	Help:      "Forecast queries by bucket and outcome",
}, []string{"bucket", "outcome"})

// ForecastDurationSeconds tracks engine time, excluding storage reads.
var ForecastDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "capacity",
	Name:      "forecast_duration_seconds",
	Help:      "Time spent computing a forecast from a loaded snapshot",
	Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
})

// ForecastRangeDays tracks the length of requested forecast ranges.
var ForecastRangeDays = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "capacity",
	Name:      "forecast_range_days",
	Help:      "Number of days covered by a forecast query",
	Buckets:   []float64{1, 7, 31, 92, 183, 366, 731},
})

// OverloadedBuckets reports how many buckets of the latest forecast had
// demand above availability.
var OverloadedBuckets = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "capacity",
	Name:      "overloaded_buckets",
	Help:      "Buckets where needed hours exceeded available hours in the latest forecast",
})

// RulesUpdatesTotal counts stored rules replacements by source (put, ics).
var RulesUpdatesTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "capacity",
	Name:      "rules_updates_total",
	Help:      "Capacity rules document replacements by source",
}, []string{"source"})

// HTTPRequestsTotal counts handled requests by route and status class.
var HTTPRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "http",
	Name:      "requests_total",
	Help:      "Handled HTTP requests by route and status code",
}, []string{"method", "route", "status"})
