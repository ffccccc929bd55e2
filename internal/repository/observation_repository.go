package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"observation-service/internal/models"
	"observation-service/internal/utils"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ObservationTx is the set of observation store operations available while
// an observation row is locked.
type ObservationTx interface {
	HasObservationPlots(ctx context.Context, observationID uuid.UUID) (bool, error)
	FetchPlantingSite(ctx context.Context, siteID uuid.UUID) (*models.PlantingSite, error)
	InsertObservationPlots(ctx context.Context, observationID uuid.UUID, plots []models.PlotAssignment) error
	UpdateObservationState(ctx context.Context, observationID uuid.UUID, from, to models.ObservationState) error
}

// ObservationStore runs fn with the observation row locked. fn's changes are
// committed if it returns nil and rolled back otherwise.
type ObservationStore interface {
	WithLockedObservation(
		ctx context.Context,
		observationID uuid.UUID,
		fn func(ctx context.Context, tx ObservationTx, observation *models.Observation) error,
	) error
}

type ObservationRepository struct {
	db *sqlx.DB
}

func NewObservationRepository(db *sqlx.DB) *ObservationRepository {
	return &ObservationRepository{db: db}
}

const observationColumns = `
	id, planting_site_id, state, start_date, end_date,
	COALESCE(requested_subzone_ids, '{}') AS requested_subzone_ids,
	created_at, updated_at`

func (r *ObservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Observation, error) {
	var observation models.Observation
	query := `SELECT ` + observationColumns + ` FROM observations WHERE id = $1`

	if err := r.db.GetContext(ctx, &observation, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrObservationNotFound
		}
		return nil, fmt.Errorf("failed to get observation: %w", err)
	}

	return &observation, nil
}

// ListDueObservations returns upcoming observations whose start date is on or
// before asOf, oldest first.
func (r *ObservationRepository) ListDueObservations(ctx context.Context, asOf time.Time) ([]models.Observation, error) {
	var observations []models.Observation
	query := `SELECT ` + observationColumns + `
		FROM observations
		WHERE state = $1 AND start_date <= $2
		ORDER BY start_date, id`

	if err := r.db.SelectContext(ctx, &observations, query, models.ObservationUpcoming, asOf); err != nil {
		return nil, fmt.Errorf("failed to list due observations: %w", err)
	}

	return observations, nil
}

// ListCompletedObservations returns the site's completed observations, oldest
// first.
func (r *ObservationRepository) ListCompletedObservations(ctx context.Context, siteID uuid.UUID) ([]models.Observation, error) {
	var observations []models.Observation
	query := `SELECT ` + observationColumns + `
		FROM observations
		WHERE planting_site_id = $1 AND state = $2
		ORDER BY end_date, updated_at, id`

	if err := r.db.SelectContext(ctx, &observations, query, siteID, models.ObservationCompleted); err != nil {
		return nil, fmt.Errorf("failed to list completed observations: %w", err)
	}

	return observations, nil
}

func (r *ObservationRepository) GetObservationPlots(ctx context.Context, observationID uuid.UUID) ([]models.ObservationPlot, error) {
	var plots []models.ObservationPlot
	query := `
		SELECT observation_id, monitoring_plot_id, is_permanent, created_at
		FROM observation_plots
		WHERE observation_id = $1`

	if err := r.db.SelectContext(ctx, &plots, query, observationID); err != nil {
		return nil, fmt.Errorf("failed to get observation plots: %w", err)
	}

	return plots, nil
}

// WithLockedObservation takes a row lock on the observation in a read
// committed transaction, so concurrent callers for the same observation run
// one after the other and each sees the previous caller's committed state.
func (r *ObservationRepository) WithLockedObservation(
	ctx context.Context,
	observationID uuid.UUID,
	fn func(ctx context.Context, tx ObservationTx, observation *models.Observation) error,
) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	var observation models.Observation
	lockQuery := `SELECT ` + observationColumns + ` FROM observations WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &observation, lockQuery, observationID); err != nil {
		rollback(tx, observationID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrObservationNotFound
		}
		return fmt.Errorf("failed to lock observation: %w", err)
	}

	if err := fn(ctx, &observationTx{tx: tx}, &observation); err != nil {
		rollback(tx, observationID)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func rollback(tx *sqlx.Tx, observationID uuid.UUID) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		slog.Error("Failed to rollback observation transaction", "observation_id", observationID, "error", err)
	}
}

type observationTx struct {
	tx *sqlx.Tx
}

func (t *observationTx) HasObservationPlots(ctx context.Context, observationID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM observation_plots WHERE observation_id = $1)`

	if err := t.tx.GetContext(ctx, &exists, query, observationID); err != nil {
		return false, fmt.Errorf("failed to check observation plots: %w", err)
	}

	return exists, nil
}

func (t *observationTx) FetchPlantingSite(ctx context.Context, siteID uuid.UUID) (*models.PlantingSite, error) {
	return fetchPlantingSite(ctx, t.tx, siteID)
}

func (t *observationTx) InsertObservationPlots(ctx context.Context, observationID uuid.UUID, plots []models.PlotAssignment) error {
	if len(plots) == 0 {
		return nil
	}

	now := time.Now()
	insert := builder().
		Insert("observation_plots").
		Columns("observation_id", "monitoring_plot_id", "is_permanent", "created_at")
	for _, plot := range plots {
		insert = insert.Values(observationID, plot.MonitoringPlotID, plot.IsPermanent, now)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build observation plot insert: %w", err)
	}

	if err := utils.ExecWithCheck(ctx, t.tx, query, utils.ExecInsert, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return fmt.Errorf("%w: observation %s", ErrDuplicateObservationPlot, observationID)
		}
		return fmt.Errorf("failed to insert observation plots: %w", err)
	}

	slog.Info("Inserted observation plots", "observation_id", observationID, "count", len(plots))
	return nil
}

func (t *observationTx) UpdateObservationState(ctx context.Context, observationID uuid.UUID, from, to models.ObservationState) error {
	query := `UPDATE observations SET state = $1, updated_at = $2 WHERE id = $3 AND state = $4`

	err := utils.ExecWithCheck(ctx, t.tx, query, utils.ExecUpdate, to, time.Now(), observationID, from)
	if errors.Is(err, utils.ErrNoRowsAffected) {
		return fmt.Errorf("%w: observation %s is no longer %s", ErrObservationStateChanged, observationID, from)
	}
	if err != nil {
		return fmt.Errorf("failed to update observation state: %w", err)
	}

	return nil
}
