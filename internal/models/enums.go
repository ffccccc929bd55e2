package models

type ObservationState string

const (
	ObservationUpcoming   ObservationState = "upcoming"
	ObservationInProgress ObservationState = "in_progress"
	ObservationCompleted  ObservationState = "completed"
	ObservationAbandoned  ObservationState = "abandoned"
)

// CanTransitionTo reports whether an observation may move from s to next.
func (s ObservationState) CanTransitionTo(next ObservationState) bool {
	switch s {
	case ObservationUpcoming:
		return next == ObservationInProgress || next == ObservationAbandoned
	case ObservationInProgress:
		return next == ObservationCompleted || next == ObservationAbandoned
	default:
		return false
	}
}

type PlotKind string

const (
	PlotPermanent PlotKind = "permanent"
	PlotTemporary PlotKind = "temporary"
)

type ObservationEventType string

const (
	EventObservationStarted ObservationEventType = "observation_started"
)
