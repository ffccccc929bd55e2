package metrics

import (
	"observation-service/internal/models"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "observation_service"

const (
	StartResultStarted        = "started"
	StartResultAlreadyStarted = "already_started"
	StartResultNoPlots        = "no_plots"
	StartResultError          = "error"
)

// ObservationMetrics counts observation starts and the plots they assign.
// A nil *ObservationMetrics records nothing.
type ObservationMetrics struct {
	StartsTotal        *prometheus.CounterVec
	PlotsAssignedTotal *prometheus.CounterVec
}

func NewObservationMetrics(reg prometheus.Registerer) *ObservationMetrics {
	m := &ObservationMetrics{
		StartsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observation_starts_total",
			Help:      "Observation start attempts by result.",
		}, []string{"result"}),
		PlotsAssignedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observation_plots_assigned_total",
			Help:      "Monitoring plots assigned to started observations by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.StartsTotal, m.PlotsAssignedTotal)
	return m
}

func (m *ObservationMetrics) RecordStart(result string) {
	if m == nil {
		return
	}
	m.StartsTotal.WithLabelValues(result).Inc()
}

func (m *ObservationMetrics) RecordAssignments(assignments []models.PlotAssignment) {
	if m == nil {
		return
	}
	for _, a := range assignments {
		kind := models.PlotTemporary
		if a.IsPermanent {
			kind = models.PlotPermanent
		}
		m.PlotsAssignedTotal.WithLabelValues(string(kind)).Inc()
	}
}
