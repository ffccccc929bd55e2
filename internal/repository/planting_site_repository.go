package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"observation-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
)

type PlantingSiteRepository struct {
	db *sqlx.DB
}

func NewPlantingSiteRepository(db *sqlx.DB) *PlantingSiteRepository {
	return &PlantingSiteRepository{db: db}
}

type subzoneRow struct {
	models.PlantingSubzone
	BoundaryWKB []byte `db:"boundary_wkb"`
}

type plotRow struct {
	models.MonitoringPlot
	BoundaryWKB []byte `db:"boundary_wkb"`
}

// FetchPlantingSite loads a planting site with its zones, subzones and
// monitoring plots. Zones and subzones are ordered by name, plots by number.
func (r *PlantingSiteRepository) FetchPlantingSite(ctx context.Context, siteID uuid.UUID) (*models.PlantingSite, error) {
	return fetchPlantingSite(ctx, r.db, siteID)
}

func fetchPlantingSite(ctx context.Context, q sqlx.QueryerContext, siteID uuid.UUID) (*models.PlantingSite, error) {
	var site models.PlantingSite
	siteQuery := `
		SELECT id, name, survival_rate_includes_temp_plots
		FROM planting_sites
		WHERE id = $1`
	if err := sqlx.GetContext(ctx, q, &site, siteQuery, siteID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlantingSiteNotFound
		}
		return nil, fmt.Errorf("failed to get planting site: %w", err)
	}

	var zones []models.PlantingZone
	zoneQuery := `
		SELECT id, planting_site_id, name, area_ha, num_permanent_clusters, num_temporary_plots
		FROM planting_zones
		WHERE planting_site_id = $1
		ORDER BY name, id`
	if err := sqlx.SelectContext(ctx, q, &zones, zoneQuery, siteID); err != nil {
		return nil, fmt.Errorf("failed to get planting zones: %w", err)
	}

	var subzoneRows []subzoneRow
	subzoneQuery := `
		SELECT
			s.id, s.planting_zone_id, s.name, s.full_name, s.area_ha,
			EXISTS (SELECT 1 FROM plantings p WHERE p.planting_subzone_id = s.id) AS has_plants,
			ST_AsBinary(s.boundary) AS boundary_wkb
		FROM planting_subzones s
		JOIN planting_zones z ON z.id = s.planting_zone_id
		WHERE z.planting_site_id = $1
		ORDER BY s.full_name, s.id`
	if err := sqlx.SelectContext(ctx, q, &subzoneRows, subzoneQuery, siteID); err != nil {
		return nil, fmt.Errorf("failed to get planting subzones: %w", err)
	}

	var plotRows []plotRow
	plotQuery := `
		SELECT
			mp.id, mp.planting_subzone_id, mp.plot_number, mp.cluster_number, mp.size_meters,
			ST_AsBinary(mp.boundary) AS boundary_wkb
		FROM monitoring_plots mp
		JOIN planting_subzones s ON s.id = mp.planting_subzone_id
		JOIN planting_zones z ON z.id = s.planting_zone_id
		WHERE z.planting_site_id = $1
		ORDER BY mp.plot_number`
	if err := sqlx.SelectContext(ctx, q, &plotRows, plotQuery, siteID); err != nil {
		return nil, fmt.Errorf("failed to get monitoring plots: %w", err)
	}

	plotsBySubzone := make(map[uuid.UUID][]models.MonitoringPlot)
	for _, row := range plotRows {
		plot := row.MonitoringPlot
		if len(row.BoundaryWKB) > 0 {
			boundary, err := decodePolygon(row.BoundaryWKB)
			if err != nil {
				slog.Warn("Ignoring unreadable monitoring plot boundary", "monitoring_plot_id", plot.ID, "error", err)
			} else {
				plot.Boundary = boundary
			}
		}
		plotsBySubzone[plot.PlantingSubzoneID] = append(plotsBySubzone[plot.PlantingSubzoneID], plot)
	}

	subzonesByZone := make(map[uuid.UUID][]models.PlantingSubzone)
	for _, row := range subzoneRows {
		subzone := row.PlantingSubzone
		if len(row.BoundaryWKB) > 0 {
			boundary, err := decodeMultiPolygon(row.BoundaryWKB)
			if err != nil {
				slog.Warn("Ignoring unreadable planting subzone boundary", "planting_subzone_id", subzone.ID, "error", err)
			} else {
				subzone.Boundary = boundary
			}
		}
		subzone.Plots = plotsBySubzone[subzone.ID]
		subzonesByZone[subzone.PlantingZoneID] = append(subzonesByZone[subzone.PlantingZoneID], subzone)
	}

	for i := range zones {
		zones[i].Subzones = subzonesByZone[zones[i].ID]
	}
	site.Zones = zones

	return &site, nil
}

func decodePolygon(data []byte) (*geom.Polygon, error) {
	g, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal WKB: %w", err)
	}
	polygon, ok := g.(*geom.Polygon)
	if !ok {
		return nil, fmt.Errorf("expected Polygon, got %T", g)
	}
	return polygon, nil
}

func decodeMultiPolygon(data []byte) (*geom.MultiPolygon, error) {
	g, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal WKB: %w", err)
	}
	switch t := g.(type) {
	case *geom.MultiPolygon:
		return t, nil
	case *geom.Polygon:
		mp := geom.NewMultiPolygon(t.Layout())
		if err := mp.Push(t); err != nil {
			return nil, fmt.Errorf("failed to wrap polygon: %w", err)
		}
		return mp, nil
	default:
		return nil, fmt.Errorf("expected MultiPolygon, got %T", g)
	}
}
