package services

import (
	"context"
	"fmt"
	"log/slog"

	"observation-service/internal/models"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type ObservationReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Observation, error)
	GetObservationPlots(ctx context.Context, observationID uuid.UUID) ([]models.ObservationPlot, error)
	ListCompletedObservations(ctx context.Context, siteID uuid.UUID) ([]models.Observation, error)
}

type PlantingSiteReader interface {
	FetchPlantingSite(ctx context.Context, siteID uuid.UUID) (*models.PlantingSite, error)
}

type BaselineReader interface {
	FetchPlotDensities(ctx context.Context, plotIDs []uuid.UUID) ([]models.PlotT0Density, error)
	FetchZoneTempDensities(ctx context.Context, zoneIDs []uuid.UUID) ([]models.ZoneT0TempDensity, error)
}

type ObservedTotalsReader interface {
	FetchObservedTotals(ctx context.Context, observationID uuid.UUID) ([]models.ObservedSpeciesTotals, error)
}

// ResultsCache stores results of completed observations. GetResults returns
// nil without error on a miss.
type ResultsCache interface {
	GetResults(ctx context.Context, observationID uuid.UUID) (*models.SiteResults, error)
	SetResults(ctx context.Context, results *models.SiteResults) error
}

// ResultsArchive keeps a durable snapshot of completed observation results.
// LoadResults returns nil without error when nothing was archived.
type ResultsArchive interface {
	ArchiveResults(ctx context.Context, results *models.SiteResults) error
	LoadResults(ctx context.Context, siteID, observationID uuid.UUID) (*models.SiteResults, error)
}

type ObservationResultsService struct {
	observations ObservationReader
	sites        PlantingSiteReader
	baselines    BaselineReader
	totals       ObservedTotalsReader
	cache        ResultsCache
	archive      ResultsArchive
}

// NewObservationResultsService creates the results service. cache and archive
// may be nil.
func NewObservationResultsService(
	observations ObservationReader,
	sites PlantingSiteReader,
	baselines BaselineReader,
	totals ObservedTotalsReader,
	cache ResultsCache,
	archive ResultsArchive,
) *ObservationResultsService {
	return &ObservationResultsService{
		observations: observations,
		sites:        sites,
		baselines:    baselines,
		totals:       totals,
		cache:        cache,
		archive:      archive,
	}
}

// GetResults returns the survival and mortality results of an observation.
// Completed observations are read from the cache, then the archive, before
// being computed; freshly computed results are cached and archived. Cache and
// archive failures are logged and do not fail the call.
func (s *ObservationResultsService) GetResults(ctx context.Context, observationID uuid.UUID) (*models.SiteResults, error) {
	if s.cache != nil {
		cached, err := s.cache.GetResults(ctx, observationID)
		if err != nil {
			slog.Warn("Failed to read cached observation results", "observation_id", observationID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	observation, err := s.observations.GetByID(ctx, observationID)
	if err != nil {
		return nil, err
	}
	completed := observation.State == models.ObservationCompleted

	if completed && s.archive != nil {
		archived, err := s.archive.LoadResults(ctx, observation.PlantingSiteID, observationID)
		if err != nil {
			slog.Warn("Failed to read archived observation results", "observation_id", observationID, "error", err)
		} else if archived != nil {
			s.cacheResults(ctx, archived)
			return archived, nil
		}
	}

	data, err := s.loadObservationData(ctx, observation)
	if err != nil {
		return nil, err
	}

	results := AggregateSiteResults(*data)

	if completed {
		s.cacheResults(ctx, results)
		if s.archive != nil {
			if err := s.archive.ArchiveResults(ctx, results); err != nil {
				slog.Error("Failed to archive observation results", "observation_id", observationID, "error", err)
			}
		}
	}

	return results, nil
}

// GetSiteRollup combines the results of every completed observation of a
// site, oldest first, so subzones missed by the latest observation keep their
// most recent figures.
func (s *ObservationResultsService) GetSiteRollup(ctx context.Context, siteID uuid.UUID) (*models.SiteResults, error) {
	site, err := s.sites.FetchPlantingSite(ctx, siteID)
	if err != nil {
		return nil, err
	}

	completed, err := s.observations.ListCompletedObservations(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed observations: %w", err)
	}
	if len(completed) == 0 {
		return nil, ErrNoCompletedObservations
	}

	passes := make([]*models.SiteResults, 0, len(completed))
	for _, observation := range completed {
		results, err := s.GetResults(ctx, observation.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load results of observation %s: %w", observation.ID, err)
		}
		passes = append(passes, results)
	}

	rollup := RollupSiteResults(site, passes)
	slog.Info("Rolled up site observation results",
		"planting_site_id", siteID,
		"observations", len(passes))
	return rollup, nil
}

func (s *ObservationResultsService) cacheResults(ctx context.Context, results *models.SiteResults) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetResults(ctx, results); err != nil {
		slog.Warn("Failed to cache observation results", "observation_id", results.ObservationID, "error", err)
	}
}

func (s *ObservationResultsService) loadObservationData(ctx context.Context, observation *models.Observation) (*ObservationData, error) {
	observationID := observation.ID
	data := &ObservationData{Observation: observation}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		site, err := s.sites.FetchPlantingSite(gctx, observation.PlantingSiteID)
		if err != nil {
			return fmt.Errorf("failed to load planting site: %w", err)
		}
		data.Site = site
		return nil
	})
	g.Go(func() error {
		plots, err := s.observations.GetObservationPlots(gctx, observationID)
		if err != nil {
			return fmt.Errorf("failed to load observation plots: %w", err)
		}
		data.Plots = plots
		return nil
	})
	g.Go(func() error {
		totals, err := s.totals.FetchObservedTotals(gctx, observationID)
		if err != nil {
			return fmt.Errorf("failed to load observed totals: %w", err)
		}
		data.Totals = totals
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	plotIDs := make([]uuid.UUID, 0, len(data.Plots))
	for _, plot := range data.Plots {
		plotIDs = append(plotIDs, plot.MonitoringPlotID)
	}
	zoneIDs := make([]uuid.UUID, 0, len(data.Site.Zones))
	for _, zone := range data.Site.Zones {
		zoneIDs = append(zoneIDs, zone.ID)
	}

	var (
		plotDensities []models.PlotT0Density
		zoneDensities []models.ZoneT0TempDensity
	)
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		densities, err := s.baselines.FetchPlotDensities(gctx, plotIDs)
		if err != nil {
			return fmt.Errorf("failed to load plot T0 densities: %w", err)
		}
		plotDensities = densities
		return nil
	})
	g.Go(func() error {
		densities, err := s.baselines.FetchZoneTempDensities(gctx, zoneIDs)
		if err != nil {
			return fmt.Errorf("failed to load zone T0 densities: %w", err)
		}
		zoneDensities = densities
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data.Baselines = models.NewBaselineDensities(plotDensities, zoneDensities)
	return data, nil
}
