package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlotT0Density is the baseline plants-per-hectare for one species on one
// monitoring plot.
type PlotT0Density struct {
	MonitoringPlotID uuid.UUID       `json:"monitoring_plot_id" db:"monitoring_plot_id"`
	SpeciesID        uuid.UUID       `json:"species_id" db:"species_id"`
	PlotDensity      decimal.Decimal `json:"plot_density" db:"plot_density"`
}

// ZoneT0TempDensity is the provisional zone-wide baseline for one species,
// used when a plot has no density of its own.
type ZoneT0TempDensity struct {
	PlantingZoneID uuid.UUID       `json:"planting_zone_id" db:"planting_zone_id"`
	SpeciesID      uuid.UUID       `json:"species_id" db:"species_id"`
	ZoneDensity    decimal.Decimal `json:"zone_density" db:"zone_density"`
}

type ObservedSpeciesTotals struct {
	ObservationID    uuid.UUID `json:"observation_id" db:"observation_id"`
	MonitoringPlotID uuid.UUID `json:"monitoring_plot_id" db:"monitoring_plot_id"`
	SpeciesID        uuid.UUID `json:"species_id" db:"species_id"`
	TotalLive        int       `json:"total_live" db:"total_live"`
	TotalDead        int       `json:"total_dead" db:"total_dead"`
	TotalExisting    int       `json:"total_existing" db:"total_existing"`
}

// BaselineDensities indexes T0 figures for lookup during aggregation.
type BaselineDensities struct {
	ByPlot map[uuid.UUID]map[uuid.UUID]decimal.Decimal
	ByZone map[uuid.UUID]map[uuid.UUID]decimal.Decimal
}

func NewBaselineDensities(plots []PlotT0Density, zones []ZoneT0TempDensity) BaselineDensities {
	b := BaselineDensities{
		ByPlot: make(map[uuid.UUID]map[uuid.UUID]decimal.Decimal),
		ByZone: make(map[uuid.UUID]map[uuid.UUID]decimal.Decimal),
	}
	for _, d := range plots {
		if b.ByPlot[d.MonitoringPlotID] == nil {
			b.ByPlot[d.MonitoringPlotID] = make(map[uuid.UUID]decimal.Decimal)
		}
		b.ByPlot[d.MonitoringPlotID][d.SpeciesID] = d.PlotDensity
	}
	for _, d := range zones {
		if b.ByZone[d.PlantingZoneID] == nil {
			b.ByZone[d.PlantingZoneID] = make(map[uuid.UUID]decimal.Decimal)
		}
		b.ByZone[d.PlantingZoneID][d.SpeciesID] = d.ZoneDensity
	}
	return b
}

// Resolve returns the plot's own density for the species, falling back to the
// zone's provisional density. It returns nil when neither exists.
func (b BaselineDensities) Resolve(plotID, zoneID, speciesID uuid.UUID) *decimal.Decimal {
	if density, ok := b.ByPlot[plotID][speciesID]; ok {
		return &density
	}
	if density, ok := b.ByZone[zoneID][speciesID]; ok {
		return &density
	}
	return nil
}
