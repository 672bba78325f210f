package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// eventsDispatched tracks messages fanned out by event name.
	eventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_events_dispatched_total",
			Help: "Total messages fanned out to subscribers by event name",
		},
		[]string{"event"},
	)

	// subscriberGauge tracks current subscriber counts by event name.
	subscriberGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dashboard_event_subscribers",
			Help: "Current number of subscribers by event name",
		},
		[]string{"event"},
	)
)
