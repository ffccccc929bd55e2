package services

import (
	"log/slog"
	"sort"

	"observation-service/internal/geometry"
	"observation-service/internal/models"

	"github.com/google/uuid"
)

// RandomSource shuffles candidate plots. *rand.Rand from math/rand/v2
// satisfies it.
type RandomSource interface {
	Shuffle(n int, swap func(i, j int))
}

// ChooseTemporaryPlots draws up to count plots uniformly at random from the
// subzone's plots that are not in permanent and satisfy planted. When the
// subzone has fewer candidates than count, all candidates are returned.
func ChooseTemporaryPlots(
	subzone models.PlantingSubzone,
	count int,
	permanent map[uuid.UUID]bool,
	planted geometry.PlotPredicate,
	rng RandomSource,
) []models.MonitoringPlot {
	if count <= 0 {
		return nil
	}

	candidates := make([]models.MonitoringPlot, 0, len(subzone.Plots))
	for _, plot := range subzone.Plots {
		if permanent[plot.ID] || !planted(plot.ID) {
			continue
		}
		candidates = append(candidates, plot)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].PlotNumber < candidates[j].PlotNumber
	})

	if len(candidates) < count {
		slog.Warn("Subzone has fewer candidate plots than temporary slots",
			"planting_subzone_id", subzone.ID,
			"requested", count,
			"available", len(candidates))
		return candidates
	}

	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	return candidates[:count]
}

// AssignPlots selects the permanent and temporary plots for every zone of the
// site. Permanent plots come first within each zone. The returned slice is
// empty when no zone has an eligible plot.
func AssignPlots(site *models.PlantingSite, requested map[uuid.UUID]bool, rng RandomSource) []models.PlotAssignment {
	planted := geometry.NewPlantedPlotPredicate(site, requested)

	var assignments []models.PlotAssignment
	for i := range site.Zones {
		zone := &site.Zones[i]

		if !zoneSelectable(zone, requested) {
			slog.Info("Skipping zone because it has no reported plants",
				"planting_zone_id", zone.ID,
				"planting_site_id", site.ID)
			continue
		}

		permanentPlots := SelectPermanentClusters(zone, zone.NumPermanentClusters, planted)
		permanentIDs := make(map[uuid.UUID]bool, len(permanentPlots))
		permanentBySubzone := make(map[uuid.UUID]int)
		for _, plot := range permanentPlots {
			permanentIDs[plot.ID] = true
			permanentBySubzone[plot.PlantingSubzoneID]++
			assignments = append(assignments, models.PlotAssignment{
				MonitoringPlotID: plot.ID,
				IsPermanent:      true,
			})
		}

		slots := DistributeTemporarySlots(zone, permanentBySubzone, requested)
		numTemporary := 0
		for _, subzone := range zone.Subzones {
			for _, plot := range ChooseTemporaryPlots(subzone, slots[subzone.ID], permanentIDs, planted, rng) {
				assignments = append(assignments, models.PlotAssignment{
					MonitoringPlotID: plot.ID,
					IsPermanent:      false,
				})
				numTemporary++
			}
		}

		slog.Info("Assigned plots for zone",
			"planting_zone_id", zone.ID,
			"permanent", len(permanentPlots),
			"temporary", numTemporary)
	}

	return assignments
}

func zoneSelectable(zone *models.PlantingZone, requested map[uuid.UUID]bool) bool {
	for _, subzone := range zone.Subzones {
		if geometry.SubzoneSelectable(subzone, requested) {
			return true
		}
	}
	return false
}
