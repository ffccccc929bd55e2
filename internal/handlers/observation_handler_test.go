package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"observation-service/internal/models"
	"observation-service/internal/repository"
	"observation-service/internal/services"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

type stubLifecycle struct {
	assignments []models.PlotAssignment
	startErr    error
	completeErr error
	calledWith  uuid.UUID
}

func (s *stubLifecycle) StartObservation(ctx context.Context, observationID uuid.UUID) ([]models.PlotAssignment, error) {
	s.calledWith = observationID
	return s.assignments, s.startErr
}

func (s *stubLifecycle) CompleteObservation(ctx context.Context, observationID uuid.UUID) error {
	s.calledWith = observationID
	return s.completeErr
}

type stubResults struct {
	results    *models.SiteResults
	err        error
	rollupSite uuid.UUID
}

func (s *stubResults) GetResults(ctx context.Context, observationID uuid.UUID) (*models.SiteResults, error) {
	return s.results, s.err
}

func (s *stubResults) GetSiteRollup(ctx context.Context, siteID uuid.UUID) (*models.SiteResults, error) {
	s.rollupSite = siteID
	return s.results, s.err
}

const (
	basePath     = "/observation/internal/api/v1/observations/"
	siteBasePath = "/observation/internal/api/v1/sites/"
)

func newTestApp(lifecycle ObservationLifecycle, results ObservationResults) *fiber.App {
	app := fiber.New()
	NewObservationHandler(lifecycle, results).Register(app)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path string) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func errorCode(body map[string]any) string {
	apiErr, _ := body["error"].(map[string]any)
	code, _ := apiErr["code"].(string)
	return code
}

// ============================================================================
// TEST SUITE 1: START
// ============================================================================

func TestStartObservation_Success(t *testing.T) {
	id := uuid.New()
	lifecycle := &stubLifecycle{assignments: []models.PlotAssignment{
		{MonitoringPlotID: uuid.New(), IsPermanent: true},
		{MonitoringPlotID: uuid.New(), IsPermanent: true},
		{MonitoringPlotID: uuid.New()},
	}}
	app := newTestApp(lifecycle, &stubResults{})

	status, body := doRequest(t, app, http.MethodPost, basePath+id.String()+"/start")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, id, lifecycle.calledWith)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(2), data["permanent_count"])
	assert.Equal(t, float64(1), data["temporary_count"])
}

func TestStartObservation_ErrorMapping(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", repository.ErrObservationNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"already started", &services.ObservationAlreadyStartedError{ObservationID: id}, http.StatusConflict, "OBSERVATION_ALREADY_STARTED"},
		{"no plots", &services.ObservationHasNoPlotsError{ObservationID: id}, http.StatusUnprocessableEntity, "OBSERVATION_HAS_NO_PLOTS"},
		{"unexpected", fmt.Errorf("failed to start observation: %w", errors.New("db down")), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&stubLifecycle{startErr: tt.err}, &stubResults{})

			status, body := doRequest(t, app, http.MethodPost, basePath+id.String()+"/start")

			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, errorCode(body))
		})
	}
}

func TestStartObservation_InvalidID(t *testing.T) {
	lifecycle := &stubLifecycle{}
	app := newTestApp(lifecycle, &stubResults{})

	status, body := doRequest(t, app, http.MethodPost, basePath+"not-a-uuid/start")

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_UUID", errorCode(body))
	assert.Equal(t, uuid.Nil, lifecycle.calledWith)
}

// ============================================================================
// TEST SUITE 2: COMPLETE AND RESULTS
// ============================================================================

func TestCompleteObservation_InvalidTransition(t *testing.T) {
	id := uuid.New()
	app := newTestApp(&stubLifecycle{completeErr: &services.InvalidStateTransitionError{
		ObservationID: id,
		From:          models.ObservationUpcoming,
		To:            models.ObservationCompleted,
	}}, &stubResults{})

	status, body := doRequest(t, app, http.MethodPost, basePath+id.String()+"/complete")

	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_STATE_TRANSITION", errorCode(body))
}

func TestCompleteObservation_Success(t *testing.T) {
	id := uuid.New()
	app := newTestApp(&stubLifecycle{}, &stubResults{})

	status, body := doRequest(t, app, http.MethodPost, basePath+id.String()+"/complete")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(models.ObservationCompleted), body["data"].(map[string]any)["state"])
}

func TestGetResults(t *testing.T) {
	id := uuid.New()
	survival := 64
	app := newTestApp(&stubLifecycle{}, &stubResults{results: &models.SiteResults{
		ObservationID: id,
		SurvivalRate:  &survival,
	}})

	status, body := doRequest(t, app, http.MethodGet, basePath+id.String()+"/results")

	assert.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, id.String(), data["observation_id"])
	assert.Equal(t, float64(64), data["survival_rate"])
}

// ============================================================================
// TEST SUITE 3: SITE ROLLUP
// ============================================================================

func TestGetSiteRollup(t *testing.T) {
	siteID, latest := uuid.New(), uuid.New()
	results := &stubResults{results: &models.SiteResults{
		ObservationID:        latest,
		PlantingSiteID:       siteID,
		SourceObservationIDs: []uuid.UUID{uuid.New(), latest},
	}}
	app := newTestApp(&stubLifecycle{}, results)

	status, body := doRequest(t, app, http.MethodGet, siteBasePath+siteID.String()+"/results")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, siteID, results.rollupSite)
	data := body["data"].(map[string]any)
	assert.Len(t, data["source_observation_ids"], 2)
}

func TestGetSiteRollup_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"no completed observations", services.ErrNoCompletedObservations, http.StatusNotFound},
		{"unknown site", fmt.Errorf("load: %w", repository.ErrPlantingSiteNotFound), http.StatusNotFound},
		{"store failure", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&stubLifecycle{}, &stubResults{err: tt.err})

			status, _ := doRequest(t, app, http.MethodGet, siteBasePath+uuid.NewString()+"/results")

			assert.Equal(t, tt.status, status)
		})
	}
}

func TestGetSiteRollup_InvalidID(t *testing.T) {
	app := newTestApp(&stubLifecycle{}, &stubResults{})

	status, body := doRequest(t, app, http.MethodGet, siteBasePath+"not-a-uuid/results")

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_UUID", errorCode(body))
}
