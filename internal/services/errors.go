package services

import (
	"errors"
	"fmt"

	"observation-service/internal/models"

	"github.com/google/uuid"
)

var (
	ErrObservationAlreadyStarted = errors.New("observation already started")
	ErrObservationHasNoPlots     = errors.New("observation has no plots")
	ErrNoCompletedObservations   = errors.New("planting site has no completed observations")
)

// ObservationAlreadyStartedError is returned when an observation is not in the
// upcoming state or already has plots assigned.
type ObservationAlreadyStartedError struct {
	ObservationID uuid.UUID
}

func (e *ObservationAlreadyStartedError) Error() string {
	return fmt.Sprintf("observation %s already started", e.ObservationID)
}

func (e *ObservationAlreadyStartedError) Is(target error) bool {
	return target == ErrObservationAlreadyStarted
}

// ObservationHasNoPlotsError is returned when no plot in the site can be
// assigned to the observation.
type ObservationHasNoPlotsError struct {
	ObservationID uuid.UUID
}

func (e *ObservationHasNoPlotsError) Error() string {
	return fmt.Sprintf("observation %s has no eligible monitoring plots", e.ObservationID)
}

func (e *ObservationHasNoPlotsError) Is(target error) bool {
	return target == ErrObservationHasNoPlots
}

type InvalidStateTransitionError struct {
	ObservationID uuid.UUID
	From          models.ObservationState
	To            models.ObservationState
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("observation %s cannot move from %s to %s", e.ObservationID, e.From, e.To)
}
