package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SpeciesResults holds the counts and rates for one species at any level of
// the site hierarchy.
//
// SurvivalLive and BaselinePlants only cover plot/species pairs that have a
// T0 baseline, so SurvivalRate is always SurvivalLive over BaselinePlants.
// PermanentLive and PermanentDead only cover permanent plots and feed the
// mortality rate.
type SpeciesResults struct {
	SpeciesID      uuid.UUID       `json:"species_id"`
	TotalLive      int             `json:"total_live"`
	TotalDead      int             `json:"total_dead"`
	TotalExisting  int             `json:"total_existing"`
	PermanentLive  int             `json:"permanent_live"`
	PermanentDead  int             `json:"permanent_dead"`
	SurvivalLive   int             `json:"survival_live"`
	BaselinePlants decimal.Decimal `json:"baseline_plants"`
	MortalityRate  *int            `json:"mortality_rate"`
	SurvivalRate   *int            `json:"survival_rate"`
}

// TotalPlants is live plus dead plants; existing plants are counted apart.
func (s SpeciesResults) TotalPlants() int {
	return s.TotalLive + s.TotalDead
}

type PlotResults struct {
	MonitoringPlotID uuid.UUID        `json:"monitoring_plot_id"`
	PlotNumber       int64            `json:"plot_number"`
	IsPermanent      bool             `json:"is_permanent"`
	AreaHa           decimal.Decimal  `json:"area_ha"`
	PlantingDensity  int              `json:"planting_density"`
	MortalityRate    *int             `json:"mortality_rate"`
	SurvivalRate     *int             `json:"survival_rate"`
	TotalPlants      int              `json:"total_plants"`
	TotalSpecies     int              `json:"total_species"`
	Species          []SpeciesResults `json:"species"`
}

type SubzoneResults struct {
	PlantingSubzoneID     uuid.UUID        `json:"planting_subzone_id"`
	AreaHa                decimal.Decimal  `json:"area_ha"`
	PlantingDensity       int              `json:"planting_density"`
	PlantingDensityStdDev *int             `json:"planting_density_std_dev"`
	MortalityRate         *int             `json:"mortality_rate"`
	MortalityRateStdDev   *int             `json:"mortality_rate_std_dev"`
	SurvivalRate          *int             `json:"survival_rate"`
	SurvivalRateStdDev    *int             `json:"survival_rate_std_dev"`
	TotalPlants           int              `json:"total_plants"`
	TotalSpecies          int              `json:"total_species"`
	Species               []SpeciesResults `json:"species"`
	MonitoringPlots       []PlotResults    `json:"monitoring_plots"`
}

type ZoneResults struct {
	PlantingZoneID        uuid.UUID        `json:"planting_zone_id"`
	AreaHa                decimal.Decimal  `json:"area_ha"`
	PlantingDensity       int              `json:"planting_density"`
	PlantingDensityStdDev *int             `json:"planting_density_std_dev"`
	MortalityRate         *int             `json:"mortality_rate"`
	MortalityRateStdDev   *int             `json:"mortality_rate_std_dev"`
	SurvivalRate          *int             `json:"survival_rate"`
	SurvivalRateStdDev    *int             `json:"survival_rate_std_dev"`
	TotalPlants           int              `json:"total_plants"`
	TotalSpecies          int              `json:"total_species"`
	Species               []SpeciesResults `json:"species"`
	PlantingSubzones      []SubzoneResults `json:"planting_subzones"`
}

// SiteResults is the top of the result tree. For a rollup across
// observations, SourceObservationIDs lists the contributing observations,
// oldest first.
type SiteResults struct {
	ObservationID         uuid.UUID        `json:"observation_id"`
	SourceObservationIDs  []uuid.UUID      `json:"source_observation_ids,omitempty"`
	PlantingSiteID        uuid.UUID        `json:"planting_site_id"`
	State                 ObservationState `json:"state"`
	PlantingDensity       int              `json:"planting_density"`
	PlantingDensityStdDev *int             `json:"planting_density_std_dev"`
	MortalityRate         *int             `json:"mortality_rate"`
	MortalityRateStdDev   *int             `json:"mortality_rate_std_dev"`
	SurvivalRate          *int             `json:"survival_rate"`
	SurvivalRateStdDev    *int             `json:"survival_rate_std_dev"`
	TotalPlants           int              `json:"total_plants"`
	TotalSpecies          int              `json:"total_species"`
	Species               []SpeciesResults `json:"species"`
	PlantingZones         []ZoneResults    `json:"planting_zones"`
}
