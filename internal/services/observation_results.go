package services

import (
	"sort"

	"observation-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ObservationData is everything the aggregator needs for one observation.
type ObservationData struct {
	Observation *models.Observation
	Site        *models.PlantingSite
	Plots       []models.ObservationPlot
	Totals      []models.ObservedSpeciesTotals
	Baselines   models.BaselineDensities
}

// AggregateSiteResults computes plot results for every observed plot and
// rolls them up through subzone, zone and site. Ratios at each level are
// taken over summed counts, never averaged from lower-level percentages.
// Zones and subzones without observed plots are left out.
func AggregateSiteResults(data ObservationData) *models.SiteResults {
	site := data.Site

	observed := make(map[uuid.UUID]models.ObservationPlot, len(data.Plots))
	for _, plot := range data.Plots {
		observed[plot.MonitoringPlotID] = plot
	}

	totalsByPlot := make(map[uuid.UUID][]models.ObservedSpeciesTotals)
	for _, t := range data.Totals {
		totalsByPlot[t.MonitoringPlotID] = append(totalsByPlot[t.MonitoringPlotID], t)
	}

	results := &models.SiteResults{
		ObservationID:  data.Observation.ID,
		PlantingSiteID: site.ID,
		State:          data.Observation.State,
	}

	for _, zone := range site.Zones {
		var subzoneResults []models.SubzoneResults
		for _, subzone := range zone.Subzones {
			var plotResults []models.PlotResults
			for _, plot := range subzone.Plots {
				op, ok := observed[plot.ID]
				if !ok {
					continue
				}
				includeSurvival := op.IsPermanent || site.SurvivalRateIncludesTempPlots
				plotResults = append(plotResults, ComputePlotResults(
					plot, zone.ID, op.IsPermanent, includeSurvival, totalsByPlot[plot.ID], data.Baselines))
			}
			if len(plotResults) == 0 {
				continue
			}
			subzoneResults = append(subzoneResults, RollupSubzone(subzone.ID, subzone.AreaHa, plotResults))
		}
		if len(subzoneResults) == 0 {
			continue
		}
		results.PlantingZones = append(results.PlantingZones, RollupZone(zone.ID, zone.AreaHa, subzoneResults))
	}

	finishSiteResults(results)
	return results
}

// RollupSiteResults combines completed observations of one site, oldest
// first, into a single view. Each subzone merges its passes plot by plot with
// later passes replacing earlier ones; zones and the site are then rolled up
// again from the merged subzones. The result carries the latest observation's
// ID and the IDs of every pass it was built from.
func RollupSiteResults(site *models.PlantingSite, passes []*models.SiteResults) *models.SiteResults {
	merged := make(map[uuid.UUID]models.SubzoneResults)
	results := &models.SiteResults{
		PlantingSiteID: site.ID,
		State:          models.ObservationCompleted,
	}

	for _, pass := range passes {
		if pass == nil {
			continue
		}
		results.ObservationID = pass.ObservationID
		results.SourceObservationIDs = append(results.SourceObservationIDs, pass.ObservationID)
		for _, zone := range pass.PlantingZones {
			for _, subzone := range zone.PlantingSubzones {
				if earlier, ok := merged[subzone.PlantingSubzoneID]; ok {
					merged[subzone.PlantingSubzoneID] = MergeSubzoneResults(earlier, subzone)
				} else {
					merged[subzone.PlantingSubzoneID] = subzone
				}
			}
		}
	}

	for _, zone := range site.Zones {
		var subzoneResults []models.SubzoneResults
		for _, subzone := range zone.Subzones {
			if r, ok := merged[subzone.ID]; ok {
				subzoneResults = append(subzoneResults, r)
			}
		}
		if len(subzoneResults) == 0 {
			continue
		}
		results.PlantingZones = append(results.PlantingZones, RollupZone(zone.ID, zone.AreaHa, subzoneResults))
	}

	finishSiteResults(results)
	return results
}

func finishSiteResults(results *models.SiteResults) {
	var species []models.SpeciesResults
	var plots []models.PlotResults
	for _, zone := range results.PlantingZones {
		species = UnionSpecies(species, zone.Species)
		plots = append(plots, zonePlots(zone)...)
	}
	stats := rollupStats(species, plots)
	results.Species = species
	results.PlantingDensity = stats.plantingDensity
	results.PlantingDensityStdDev = stats.plantingDensityStdDev
	results.MortalityRate = stats.mortalityRate
	results.MortalityRateStdDev = stats.mortalityRateStdDev
	results.SurvivalRate = stats.survivalRate
	results.SurvivalRateStdDev = stats.survivalRateStdDev
	results.TotalPlants = stats.totalPlants
	results.TotalSpecies = stats.totalSpecies
}

// ComputePlotResults builds the per-species and overall figures for one
// observed plot. Species come from the observed totals plus every species
// with a plot or zone baseline. Each species resolves its own baseline: the
// plot record if there is one, otherwise the zone's provisional density.
func ComputePlotResults(
	plot models.MonitoringPlot,
	zoneID uuid.UUID,
	isPermanent bool,
	includeSurvival bool,
	totals []models.ObservedSpeciesTotals,
	baselines models.BaselineDensities,
) models.PlotResults {
	areaHa := plot.AreaHa()

	counts := make(map[uuid.UUID]PlantCounts)
	for _, t := range totals {
		c := counts[t.SpeciesID]
		c.Live += t.TotalLive
		c.Dead += t.TotalDead
		c.Existing += t.TotalExisting
		counts[t.SpeciesID] = c
	}
	if includeSurvival {
		for _, known := range []map[uuid.UUID]decimal.Decimal{baselines.ByPlot[plot.ID], baselines.ByZone[zoneID]} {
			for speciesID := range known {
				if _, ok := counts[speciesID]; !ok {
					counts[speciesID] = PlantCounts{}
				}
			}
		}
	}

	species := make([]models.SpeciesResults, 0, len(counts))
	for speciesID, c := range counts {
		s := models.SpeciesResults{
			SpeciesID:     speciesID,
			TotalLive:     c.Live,
			TotalDead:     c.Dead,
			TotalExisting: c.Existing,
		}
		if isPermanent {
			s.PermanentLive = c.Live
			s.PermanentDead = c.Dead
		}
		if includeSurvival {
			if density := baselines.Resolve(plot.ID, zoneID, speciesID); density != nil {
				s.SurvivalLive = c.Live
				s.BaselinePlants = density.Mul(areaHa)
			}
		}
		species = append(species, finalizeSpecies(s))
	}
	sortSpecies(species)

	stats := rollupStats(species, nil)
	live := 0
	for _, s := range species {
		live += s.TotalLive
	}

	return models.PlotResults{
		MonitoringPlotID: plot.ID,
		PlotNumber:       plot.PlotNumber,
		IsPermanent:      isPermanent,
		AreaHa:           areaHa,
		PlantingDensity:  plantingDensity(live, areaHa),
		MortalityRate:    stats.mortalityRate,
		SurvivalRate:     stats.survivalRate,
		TotalPlants:      stats.totalPlants,
		TotalSpecies:     stats.totalSpecies,
		Species:          species,
	}
}

func RollupSubzone(subzoneID uuid.UUID, areaHa decimal.Decimal, plots []models.PlotResults) models.SubzoneResults {
	var species []models.SpeciesResults
	for _, plot := range plots {
		species = UnionSpecies(species, plot.Species)
	}
	stats := rollupStats(species, plots)

	return models.SubzoneResults{
		PlantingSubzoneID:     subzoneID,
		AreaHa:                areaHa,
		PlantingDensity:       stats.plantingDensity,
		PlantingDensityStdDev: stats.plantingDensityStdDev,
		MortalityRate:         stats.mortalityRate,
		MortalityRateStdDev:   stats.mortalityRateStdDev,
		SurvivalRate:          stats.survivalRate,
		SurvivalRateStdDev:    stats.survivalRateStdDev,
		TotalPlants:           stats.totalPlants,
		TotalSpecies:          stats.totalSpecies,
		Species:               species,
		MonitoringPlots:       plots,
	}
}

func RollupZone(zoneID uuid.UUID, areaHa decimal.Decimal, subzones []models.SubzoneResults) models.ZoneResults {
	var species []models.SpeciesResults
	var plots []models.PlotResults
	for _, subzone := range subzones {
		species = UnionSpecies(species, subzone.Species)
		plots = append(plots, subzone.MonitoringPlots...)
	}
	stats := rollupStats(species, plots)

	return models.ZoneResults{
		PlantingZoneID:        zoneID,
		AreaHa:                areaHa,
		PlantingDensity:       stats.plantingDensity,
		PlantingDensityStdDev: stats.plantingDensityStdDev,
		MortalityRate:         stats.mortalityRate,
		MortalityRateStdDev:   stats.mortalityRateStdDev,
		SurvivalRate:          stats.survivalRate,
		SurvivalRateStdDev:    stats.survivalRateStdDev,
		TotalPlants:           stats.totalPlants,
		TotalSpecies:          stats.totalSpecies,
		Species:               species,
		PlantingSubzones:      subzones,
	}
}

// MergeSubzoneResults combines two passes over the same subzone. A plot
// present in both passes keeps the later pass's results.
func MergeSubzoneResults(earlier, later models.SubzoneResults) models.SubzoneResults {
	byPlot := make(map[uuid.UUID]models.PlotResults)
	for _, plot := range earlier.MonitoringPlots {
		byPlot[plot.MonitoringPlotID] = plot
	}
	for _, plot := range later.MonitoringPlots {
		byPlot[plot.MonitoringPlotID] = plot
	}

	plots := make([]models.PlotResults, 0, len(byPlot))
	for _, plot := range byPlot {
		plots = append(plots, plot)
	}
	sort.Slice(plots, func(i, j int) bool {
		return plots[i].PlotNumber < plots[j].PlotNumber
	})

	return RollupSubzone(later.PlantingSubzoneID, later.AreaHa, plots)
}

// UnionSpecies merges two species lists, summing the counts and baselines of
// entries for the same species and recomputing their rates.
func UnionSpecies(a, b []models.SpeciesResults) []models.SpeciesResults {
	merged := make(map[uuid.UUID]models.SpeciesResults, len(a)+len(b))
	for _, list := range [][]models.SpeciesResults{a, b} {
		for _, s := range list {
			m, ok := merged[s.SpeciesID]
			if !ok {
				m = models.SpeciesResults{SpeciesID: s.SpeciesID}
			}
			m.TotalLive += s.TotalLive
			m.TotalDead += s.TotalDead
			m.TotalExisting += s.TotalExisting
			m.PermanentLive += s.PermanentLive
			m.PermanentDead += s.PermanentDead
			m.SurvivalLive += s.SurvivalLive
			m.BaselinePlants = m.BaselinePlants.Add(s.BaselinePlants)
			merged[s.SpeciesID] = m
		}
	}

	species := make([]models.SpeciesResults, 0, len(merged))
	for _, s := range merged {
		species = append(species, finalizeSpecies(s))
	}
	sortSpecies(species)
	return species
}

func finalizeSpecies(s models.SpeciesResults) models.SpeciesResults {
	s.SurvivalRate = survivalPercent(s.SurvivalLive, s.BaselinePlants)
	s.MortalityRate = mortalityPercent(s.PermanentLive, s.PermanentDead)
	return s
}

func sortSpecies(species []models.SpeciesResults) {
	sort.Slice(species, func(i, j int) bool {
		return species[i].SpeciesID.String() < species[j].SpeciesID.String()
	})
}

type levelStats struct {
	plantingDensity       int
	plantingDensityStdDev *int
	mortalityRate         *int
	mortalityRateStdDev   *int
	survivalRate          *int
	survivalRateStdDev    *int
	totalPlants           int
	totalSpecies          int
}

// rollupStats derives a level's figures from its merged species list and,
// for the spread figures, from the plots underneath it.
func rollupStats(species []models.SpeciesResults, plots []models.PlotResults) levelStats {
	var stats levelStats

	survivalLive, permanentLive, permanentDead := 0, 0, 0
	baselinePlants := decimal.Zero
	for _, s := range species {
		survivalLive += s.SurvivalLive
		baselinePlants = baselinePlants.Add(s.BaselinePlants)
		permanentLive += s.PermanentLive
		permanentDead += s.PermanentDead
		stats.totalPlants += s.TotalPlants()
		if s.TotalLive+s.TotalExisting > 0 {
			stats.totalSpecies++
		}
	}
	stats.survivalRate = survivalPercent(survivalLive, baselinePlants)
	stats.mortalityRate = mortalityPercent(permanentLive, permanentDead)

	if len(plots) == 0 {
		return stats
	}

	densities := make([]int, 0, len(plots))
	var survivalSamples, mortalitySamples []weightedSample
	sum := 0
	for _, plot := range plots {
		densities = append(densities, plot.PlantingDensity)
		sum += plot.PlantingDensity

		plotBaseline := decimal.Zero
		plotPermanent := 0
		for _, s := range plot.Species {
			plotBaseline = plotBaseline.Add(s.BaselinePlants)
			plotPermanent += s.PermanentLive + s.PermanentDead
		}
		if plot.SurvivalRate != nil {
			survivalSamples = append(survivalSamples, weightedSample{value: *plot.SurvivalRate, weight: plotBaseline.InexactFloat64()})
		}
		if plot.MortalityRate != nil {
			mortalitySamples = append(mortalitySamples, weightedSample{value: *plot.MortalityRate, weight: float64(plotPermanent)})
		}
	}

	stats.plantingDensity = int(decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(len(plots)))).Round(0).IntPart())
	stats.plantingDensityStdDev = standardDeviation(densities)
	stats.survivalRateStdDev = weightedStandardDeviation(survivalSamples)
	stats.mortalityRateStdDev = weightedStandardDeviation(mortalitySamples)

	return stats
}

func zonePlots(zone models.ZoneResults) []models.PlotResults {
	var plots []models.PlotResults
	for _, subzone := range zone.PlantingSubzones {
		plots = append(plots, subzone.MonitoringPlots...)
	}
	return plots
}
