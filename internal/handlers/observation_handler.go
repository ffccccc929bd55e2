package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"observation-service/internal/models"
	"observation-service/internal/repository"
	"observation-service/internal/services"
	"observation-service/internal/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ObservationLifecycle interface {
	StartObservation(ctx context.Context, observationID uuid.UUID) ([]models.PlotAssignment, error)
	CompleteObservation(ctx context.Context, observationID uuid.UUID) error
}

type ObservationResults interface {
	GetResults(ctx context.Context, observationID uuid.UUID) (*models.SiteResults, error)
	GetSiteRollup(ctx context.Context, siteID uuid.UUID) (*models.SiteResults, error)
}

// ObservationHandler exposes observation start, completion and results.
// Callers are expected to be authorized upstream.
type ObservationHandler struct {
	lifecycle ObservationLifecycle
	results   ObservationResults
}

func NewObservationHandler(lifecycle ObservationLifecycle, results ObservationResults) *ObservationHandler {
	return &ObservationHandler{
		lifecycle: lifecycle,
		results:   results,
	}
}

func (h *ObservationHandler) Register(app *fiber.App) {
	observationGroup := app.Group("observation/internal/api/v1/observations")

	observationGroup.Post("/:id/start", h.StartObservation)       // POST /observations/:id/start
	observationGroup.Post("/:id/complete", h.CompleteObservation) // POST /observations/:id/complete
	observationGroup.Get("/:id/results", h.GetResults)            // GET /observations/:id/results

	siteGroup := app.Group("observation/internal/api/v1/sites")
	siteGroup.Get("/:id/results", h.GetSiteRollup) // GET /sites/:id/results
}

func (h *ObservationHandler) StartObservation(c fiber.Ctx) error {
	observationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_UUID", "Invalid observation ID format"))
	}

	assignments, err := h.lifecycle.StartObservation(c.Context(), observationID)
	if err != nil {
		return writeObservationError(c, err, "observation_id", observationID)
	}

	permanent := 0
	for _, a := range assignments {
		if a.IsPermanent {
			permanent++
		}
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]any{
		"observation_id":  observationID,
		"plots":           assignments,
		"permanent_count": permanent,
		"temporary_count": len(assignments) - permanent,
	}))
}

func (h *ObservationHandler) CompleteObservation(c fiber.Ctx) error {
	observationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_UUID", "Invalid observation ID format"))
	}

	if err := h.lifecycle.CompleteObservation(c.Context(), observationID); err != nil {
		return writeObservationError(c, err, "observation_id", observationID)
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]any{
		"observation_id": observationID,
		"state":          models.ObservationCompleted,
	}))
}

func (h *ObservationHandler) GetResults(c fiber.Ctx) error {
	observationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_UUID", "Invalid observation ID format"))
	}

	results, err := h.results.GetResults(c.Context(), observationID)
	if err != nil {
		return writeObservationError(c, err, "observation_id", observationID)
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(results))
}

// GetSiteRollup returns the combined results of the site's completed
// observations.
func (h *ObservationHandler) GetSiteRollup(c fiber.Ctx) error {
	siteID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_UUID", "Invalid planting site ID format"))
	}

	rollup, err := h.results.GetSiteRollup(c.Context(), siteID)
	if err != nil {
		return writeObservationError(c, err, "planting_site_id", siteID)
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(rollup))
}

func writeObservationError(c fiber.Ctx, err error, logAttrs ...any) error {
	var transitionErr *services.InvalidStateTransitionError

	switch {
	case errors.Is(err, repository.ErrObservationNotFound),
		errors.Is(err, repository.ErrPlantingSiteNotFound),
		errors.Is(err, services.ErrNoCompletedObservations):
		return c.Status(http.StatusNotFound).JSON(
			utils.CreateErrorResponse("NOT_FOUND", err.Error()))
	case errors.Is(err, services.ErrObservationAlreadyStarted):
		return c.Status(http.StatusConflict).JSON(
			utils.CreateErrorResponse("OBSERVATION_ALREADY_STARTED", err.Error()))
	case errors.Is(err, services.ErrObservationHasNoPlots):
		return c.Status(http.StatusUnprocessableEntity).JSON(
			utils.CreateErrorResponse("OBSERVATION_HAS_NO_PLOTS", err.Error()))
	case errors.As(err, &transitionErr):
		return c.Status(http.StatusConflict).JSON(
			utils.CreateErrorResponse("INVALID_STATE_TRANSITION", err.Error()))
	default:
		slog.Error("Observation request failed", append(logAttrs, "error", err)...)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("INTERNAL_ERROR", "Failed to process observation request"))
	}
}
