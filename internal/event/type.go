package event

import (
	"time"

	"observation-service/internal/models"

	"github.com/google/uuid"
)

const ObservationEventQueue string = "observation_events"

// ObservationStartedEvent is published once an observation has its plots
// assigned and is in progress.
type ObservationStartedEvent struct {
	EventType         models.ObservationEventType `json:"event_type"`
	ObservationID     uuid.UUID                   `json:"observation_id"`
	PlantingSiteID    uuid.UUID                   `json:"planting_site_id"`
	NumPermanentPlots int                         `json:"num_permanent_plots"`
	NumTemporaryPlots int                         `json:"num_temporary_plots"`
	StartedAt         time.Time                   `json:"started_at"`
}

func NewObservationStartedEvent(observation *models.Observation, assignments []models.PlotAssignment) ObservationStartedEvent {
	e := ObservationStartedEvent{
		EventType:      models.EventObservationStarted,
		ObservationID:  observation.ID,
		PlantingSiteID: observation.PlantingSiteID,
		StartedAt:      time.Now(),
	}
	for _, a := range assignments {
		if a.IsPermanent {
			e.NumPermanentPlots++
		} else {
			e.NumTemporaryPlots++
		}
	}
	return e
}
