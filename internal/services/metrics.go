package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// entriesCreated counts persisted price entries by source.
	entriesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entries_created_total",
			Help: "Total number of price entries persisted, by source.",
		},
		[]string{"source"},
	)

	// thanksGiven counts successful thanks operations.
	thanksGiven = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "thanks_given_total",
			Help: "Total number of thanks recorded against entries.",
		},
	)
)

func init() {
	prometheus.MustRegister(entriesCreated, thanksGiven)
}
