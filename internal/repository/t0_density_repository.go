package repository

import (
	"context"
	"fmt"

	"observation-service/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type T0DensityRepository struct {
	db *sqlx.DB
}

func NewT0DensityRepository(db *sqlx.DB) *T0DensityRepository {
	return &T0DensityRepository{db: db}
}

func (r *T0DensityRepository) FetchPlotDensities(ctx context.Context, plotIDs []uuid.UUID) ([]models.PlotT0Density, error) {
	if len(plotIDs) == 0 {
		return nil, nil
	}

	query, args, err := builder().
		Select("monitoring_plot_id", "species_id", "plot_density").
		From("plot_t0_densities").
		Where(squirrel.Eq{"monitoring_plot_id": plotIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build plot density query: %w", err)
	}

	var densities []models.PlotT0Density
	if err := r.db.SelectContext(ctx, &densities, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get plot T0 densities: %w", err)
	}

	return densities, nil
}

func (r *T0DensityRepository) FetchZoneTempDensities(ctx context.Context, zoneIDs []uuid.UUID) ([]models.ZoneT0TempDensity, error) {
	if len(zoneIDs) == 0 {
		return nil, nil
	}

	query, args, err := builder().
		Select("planting_zone_id", "species_id", "zone_density").
		From("planting_zone_t0_temp_densities").
		Where(squirrel.Eq{"planting_zone_id": zoneIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build zone density query: %w", err)
	}

	var densities []models.ZoneT0TempDensity
	if err := r.db.SelectContext(ctx, &densities, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get zone T0 densities: %w", err)
	}

	return densities, nil
}
