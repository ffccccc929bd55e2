package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Observation struct {
	ID                  uuid.UUID        `json:"id" db:"id"`
	PlantingSiteID      uuid.UUID        `json:"planting_site_id" db:"planting_site_id"`
	State               ObservationState `json:"state" db:"state"`
	StartDate           time.Time        `json:"start_date" db:"start_date"`
	EndDate             time.Time        `json:"end_date" db:"end_date"`
	RequestedSubzoneIDs pq.StringArray   `json:"requested_subzone_ids" db:"requested_subzone_ids"`
	CreatedAt           time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at" db:"updated_at"`
}

// RequestedSubzones returns the parsed requested subzone IDs. Unparseable
// entries are ignored.
func (o *Observation) RequestedSubzones() map[uuid.UUID]bool {
	if len(o.RequestedSubzoneIDs) == 0 {
		return nil
	}
	requested := make(map[uuid.UUID]bool, len(o.RequestedSubzoneIDs))
	for _, raw := range o.RequestedSubzoneIDs {
		if id, err := uuid.Parse(raw); err == nil {
			requested[id] = true
		}
	}
	return requested
}

type ObservationPlot struct {
	ObservationID    uuid.UUID `json:"observation_id" db:"observation_id"`
	MonitoringPlotID uuid.UUID `json:"monitoring_plot_id" db:"monitoring_plot_id"`
	IsPermanent      bool      `json:"is_permanent" db:"is_permanent"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// PlotAssignment is one plot chosen for an observation.
type PlotAssignment struct {
	MonitoringPlotID uuid.UUID `json:"monitoring_plot_id"`
	IsPermanent      bool      `json:"is_permanent"`
}
