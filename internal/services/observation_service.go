package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"observation-service/internal/event"
	"observation-service/internal/metrics"
	"observation-service/internal/models"
	"observation-service/internal/repository"

	"github.com/google/uuid"
)

// ObservationEventPublisher is notified after an observation has started.
type ObservationEventPublisher interface {
	PublishObservationStarted(ctx context.Context, e event.ObservationStartedEvent) error
}

type ObservationService struct {
	store     repository.ObservationStore
	publisher ObservationEventPublisher
	rng       RandomSource
	metrics   *metrics.ObservationMetrics
}

// NewObservationService wires the plot assignment engine. publisher and m may
// be nil.
func NewObservationService(
	store repository.ObservationStore,
	publisher ObservationEventPublisher,
	rng RandomSource,
	m *metrics.ObservationMetrics,
) *ObservationService {
	return &ObservationService{
		store:     store,
		publisher: publisher,
		rng:       rng,
		metrics:   m,
	}
}

// StartObservation assigns permanent and temporary monitoring plots to an
// upcoming observation and moves it to in progress. The checks, the site read
// and the writes share one transaction holding a lock on the observation, so
// at most one concurrent call can succeed. Nothing is written on failure.
func (s *ObservationService) StartObservation(ctx context.Context, observationID uuid.UUID) ([]models.PlotAssignment, error) {
	slog.Info("Starting observation", "observation_id", observationID)

	var (
		assignments []models.PlotAssignment
		started     models.Observation
	)

	err := s.store.WithLockedObservation(ctx, observationID, func(ctx context.Context, tx repository.ObservationTx, observation *models.Observation) error {
		if observation.State != models.ObservationUpcoming {
			return &ObservationAlreadyStartedError{ObservationID: observationID}
		}

		hasPlots, err := tx.HasObservationPlots(ctx, observationID)
		if err != nil {
			return err
		}
		if hasPlots {
			return &ObservationAlreadyStartedError{ObservationID: observationID}
		}

		site, err := tx.FetchPlantingSite(ctx, observation.PlantingSiteID)
		if err != nil {
			return err
		}

		assignments = AssignPlots(site, observation.RequestedSubzones(), s.rng)
		if len(assignments) == 0 {
			return &ObservationHasNoPlotsError{ObservationID: observationID}
		}

		if err := tx.InsertObservationPlots(ctx, observationID, assignments); err != nil {
			return err
		}
		if err := tx.UpdateObservationState(ctx, observationID, observation.State, models.ObservationInProgress); err != nil {
			return err
		}

		started = *observation
		started.State = models.ObservationInProgress
		return nil
	})
	if err != nil {
		return nil, s.startFailed(observationID, err)
	}

	s.metrics.RecordStart(metrics.StartResultStarted)
	s.metrics.RecordAssignments(assignments)

	e := event.NewObservationStartedEvent(&started, assignments)
	slog.Info("Added plots to observation",
		"observation_id", observationID,
		"permanent", e.NumPermanentPlots,
		"temporary", e.NumTemporaryPlots)

	if s.publisher != nil {
		if err := s.publisher.PublishObservationStarted(ctx, e); err != nil {
			slog.Error("Failed to publish observation started event", "observation_id", observationID, "error", err)
		}
	}

	return assignments, nil
}

func (s *ObservationService) startFailed(observationID uuid.UUID, err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateObservationPlot), errors.Is(err, repository.ErrObservationStateChanged):
		err = &ObservationAlreadyStartedError{ObservationID: observationID}
	}

	switch {
	case errors.Is(err, ErrObservationAlreadyStarted):
		s.metrics.RecordStart(metrics.StartResultAlreadyStarted)
		slog.Warn("Observation already started", "observation_id", observationID)
		return err
	case errors.Is(err, ErrObservationHasNoPlots):
		s.metrics.RecordStart(metrics.StartResultNoPlots)
		slog.Warn("Observation has no eligible plots", "observation_id", observationID)
		return err
	case errors.Is(err, repository.ErrObservationNotFound):
		s.metrics.RecordStart(metrics.StartResultError)
		return err
	default:
		s.metrics.RecordStart(metrics.StartResultError)
		slog.Error("Failed to start observation", "observation_id", observationID, "error", err)
		return fmt.Errorf("failed to start observation %s: %w", observationID, err)
	}
}

// CompleteObservation moves an in-progress observation to completed.
func (s *ObservationService) CompleteObservation(ctx context.Context, observationID uuid.UUID) error {
	err := s.store.WithLockedObservation(ctx, observationID, func(ctx context.Context, tx repository.ObservationTx, observation *models.Observation) error {
		if !observation.State.CanTransitionTo(models.ObservationCompleted) {
			return &InvalidStateTransitionError{
				ObservationID: observationID,
				From:          observation.State,
				To:            models.ObservationCompleted,
			}
		}
		return tx.UpdateObservationState(ctx, observationID, observation.State, models.ObservationCompleted)
	})
	if err != nil {
		return err
	}

	slog.Info("Observation completed", "observation_id", observationID)
	return nil
}
