package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/twpayne/go-geom"
)

const DefaultPlotSizeMeters = 30

var squareMetersPerHectare = decimal.NewFromInt(10000)

type PlantingSite struct {
	ID                            uuid.UUID      `json:"id" db:"id"`
	Name                          string         `json:"name" db:"name"`
	SurvivalRateIncludesTempPlots bool           `json:"survival_rate_includes_temp_plots" db:"survival_rate_includes_temp_plots"`
	Zones                         []PlantingZone `json:"zones" db:"-"`
}

// PlantingZone is a stratum of a planting site. NumPermanentClusters and
// NumTemporaryPlots drive plot selection when an observation starts.
type PlantingZone struct {
	ID                   uuid.UUID         `json:"id" db:"id"`
	PlantingSiteID       uuid.UUID         `json:"planting_site_id" db:"planting_site_id"`
	Name                 string            `json:"name" db:"name"`
	AreaHa               decimal.Decimal   `json:"area_ha" db:"area_ha"`
	NumPermanentClusters int               `json:"num_permanent_clusters" db:"num_permanent_clusters"`
	NumTemporaryPlots    int               `json:"num_temporary_plots" db:"num_temporary_plots"`
	Subzones             []PlantingSubzone `json:"subzones" db:"-"`
}

// PlantingSubzone is the unit at which planting status is tracked.
type PlantingSubzone struct {
	ID             uuid.UUID          `json:"id" db:"id"`
	PlantingZoneID uuid.UUID          `json:"planting_zone_id" db:"planting_zone_id"`
	Name           string             `json:"name" db:"name"`
	FullName       string             `json:"full_name" db:"full_name"`
	AreaHa         decimal.Decimal    `json:"area_ha" db:"area_ha"`
	HasPlants      bool               `json:"has_plants" db:"has_plants"`
	Boundary       *geom.MultiPolygon `json:"-" db:"-"`
	Plots          []MonitoringPlot   `json:"plots" db:"-"`
}

type MonitoringPlot struct {
	ID                uuid.UUID     `json:"id" db:"id"`
	PlantingSubzoneID uuid.UUID     `json:"planting_subzone_id" db:"planting_subzone_id"`
	PlotNumber        int64         `json:"plot_number" db:"plot_number"`
	ClusterNumber     *int          `json:"cluster_number,omitempty" db:"cluster_number"`
	SizeMeters        int           `json:"size_meters" db:"size_meters"`
	Boundary          *geom.Polygon `json:"-" db:"-"`
}

// AreaHa returns the area of the square plot in hectares.
func (p MonitoringPlot) AreaHa() decimal.Decimal {
	size := p.SizeMeters
	if size <= 0 {
		size = DefaultPlotSizeMeters
	}
	side := decimal.NewFromInt(int64(size))
	return side.Mul(side).Div(squareMetersPerHectare)
}

// Plots returns every monitoring plot in the zone, in subzone order.
func (z *PlantingZone) Plots() []MonitoringPlot {
	var plots []MonitoringPlot
	for _, subzone := range z.Subzones {
		plots = append(plots, subzone.Plots...)
	}
	return plots
}
