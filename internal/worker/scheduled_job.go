package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"observation-service/internal/models"

	"github.com/google/uuid"
)

// DueObservationLister finds upcoming observations whose start date has
// arrived.
type DueObservationLister interface {
	ListDueObservations(ctx context.Context, asOf time.Time) ([]models.Observation, error)
}

// ObservationStarter is the plot assignment entry point.
type ObservationStarter interface {
	StartObservation(ctx context.Context, observationID uuid.UUID) ([]models.PlotAssignment, error)
}

// ObservationStartScheduler periodically submits a start job to the pool for
// every due observation.
type ObservationStartScheduler struct {
	Name     string
	Interval time.Duration
	Pool     *WorkingPool

	lister  DueObservationLister
	starter ObservationStarter
	now     func() time.Time
	benign  []error
}

// NewObservationStartScheduler creates the scheduler. Errors matching one of
// benign (for example an observation another instance already started) are
// logged at info level.
func NewObservationStartScheduler(
	interval time.Duration,
	pool *WorkingPool,
	lister DueObservationLister,
	starter ObservationStarter,
	benign ...error,
) *ObservationStartScheduler {
	return &ObservationStartScheduler{
		Name:     "observation-start",
		Interval: interval,
		Pool:     pool,
		lister:   lister,
		starter:  starter,
		now:      time.Now,
		benign:   benign,
	}
}

func (s *ObservationStartScheduler) Run(ctx context.Context) {
	slog.Info("Scheduler running", "scheduler", s.Name, "interval", s.Interval)
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.SubmitDue(ctx); err != nil {
				slog.Error("Failed to submit due observations", "scheduler", s.Name, "error", err)
			}
		case <-ctx.Done():
			slog.Info("Scheduler shutting down", "scheduler", s.Name)
			return
		}
	}
}

// SubmitDue lists due observations and queues one start job for each.
func (s *ObservationStartScheduler) SubmitDue(ctx context.Context) error {
	due, err := s.lister.ListDueObservations(ctx, s.now())
	if err != nil {
		return err
	}

	for _, observation := range due {
		observationID := observation.ID
		job := func(ctx context.Context) error {
			_, err := s.starter.StartObservation(ctx, observationID)
			if err != nil && s.isBenign(err) {
				slog.Info("Skipped scheduled observation start", "observation_id", observationID, "reason", err)
				return nil
			}
			return err
		}

		submitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := s.Pool.SubmitJob(submitCtx, job)
		cancel()
		if err != nil {
			return err
		}
	}

	if len(due) > 0 {
		slog.Info("Submitted observation start jobs", "scheduler", s.Name, "count", len(due))
	}
	return nil
}

func (s *ObservationStartScheduler) isBenign(err error) bool {
	for _, target := range s.benign {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
