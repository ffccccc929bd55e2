package repository

import (
	"context"
	"fmt"

	"observation-service/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ObservedTotalsRepository struct {
	db *sqlx.DB
}

func NewObservedTotalsRepository(db *sqlx.DB) *ObservedTotalsRepository {
	return &ObservedTotalsRepository{db: db}
}

func (r *ObservedTotalsRepository) FetchObservedTotals(ctx context.Context, observationID uuid.UUID) ([]models.ObservedSpeciesTotals, error) {
	query, args, err := builder().
		Select("observation_id", "monitoring_plot_id", "species_id", "total_live", "total_dead", "total_existing").
		From("observed_plot_species_totals").
		Where(squirrel.Eq{"observation_id": observationID.String()}).
		OrderBy("monitoring_plot_id", "species_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build observed totals query: %w", err)
	}

	var totals []models.ObservedSpeciesTotals
	if err := r.db.SelectContext(ctx, &totals, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get observed totals: %w", err)
	}

	return totals, nil
}
