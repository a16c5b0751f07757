package observability

import (
	"context"

	"github.com/aretw0/teamboard/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors fed by the lifecycle hooks.
type Metrics struct {
	FilterEvaluations *prometheus.CounterVec
	FilterDuration    prometheus.Histogram
	FilterMatches     prometheus.Histogram
	PickersOpen       prometheus.Gauge
	PickersClosed     *prometheus.CounterVec
	CapabilitiesSaved prometheus.Histogram
	TeamWrites        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// leaves them unregistered, which is convenient in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FilterEvaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teamboard_filter_evaluations_total",
				Help: "Total number of capability filter evaluations",
			},
			[]string{"kind", "result"},
		),
		FilterDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "teamboard_filter_duration_seconds",
				Help:    "Duration of capability filter evaluations",
				Buckets: []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .05},
			},
		),
		FilterMatches: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "teamboard_filter_matches",
				Help:    "Number of capabilities matched per filter evaluation",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
		),
		PickersOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "teamboard_pickers_open",
				Help: "Picker sessions opened and not yet closed by this process",
			},
		),
		PickersClosed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teamboard_pickers_closed_total",
				Help: "Picker sessions closed, by outcome",
			},
			[]string{"outcome"},
		),
		CapabilitiesSaved: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "teamboard_picker_selected_capabilities",
				Help:    "Number of capabilities saved by a confirmed picker",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
			},
		),
		TeamWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teamboard_team_writes_total",
				Help: "Writes to team records",
			},
			[]string{"op"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.FilterEvaluations,
			m.FilterDuration,
			m.FilterMatches,
			m.PickersOpen,
			m.PickersClosed,
			m.CapabilitiesSaved,
			m.TeamWrites,
		)
	}
	return m
}

// Hooks returns the lifecycle hooks that update m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFilter: func(_ context.Context, e *domain.FilterEvent) {
			result := "hit"
			if e.Matches == 0 && (e.Query != "" || e.Level > 0) {
				result = "empty"
			}
			m.FilterEvaluations.WithLabelValues(filterKind(e), result).Inc()
			m.FilterDuration.Observe(e.Duration.Seconds())
			m.FilterMatches.Observe(float64(e.Matches))
		},
		OnPickerOpen: func(context.Context, *domain.PickerEvent) {
			m.PickersOpen.Inc()
		},
		OnPickerClose: func(_ context.Context, e *domain.PickerEvent) {
			m.PickersOpen.Dec()
			m.PickersClosed.WithLabelValues(string(e.Outcome)).Inc()
			if e.Outcome == domain.OutcomeConfirmed {
				m.CapabilitiesSaved.Observe(float64(e.Selected))
			}
		},
		OnTeamChange: func(_ context.Context, e *domain.TeamEvent) {
			op := "save"
			if e.Deleted {
				op = "delete"
			}
			m.TeamWrites.WithLabelValues(op).Inc()
		},
	}
}

func filterKind(e *domain.FilterEvent) string {
	switch {
	case e.Query != "" && e.Level > 0:
		return "search+level"
	case e.Query != "":
		return "search"
	case e.Level > 0:
		return "level"
	default:
		return "none"
	}
}
