package services

import (
	"sort"

	"observation-service/internal/geometry"
	"observation-service/internal/models"
)

// SelectPermanentClusters returns the plots of the first requestedCount
// eligible clusters of the zone, in ascending cluster number order. A cluster
// is eligible only if every one of its plots satisfies planted. Fewer plots
// are returned when the zone does not have enough eligible clusters.
func SelectPermanentClusters(zone *models.PlantingZone, requestedCount int, planted geometry.PlotPredicate) []models.MonitoringPlot {
	if requestedCount <= 0 {
		return nil
	}

	clusters := make(map[int][]models.MonitoringPlot)
	for _, plot := range zone.Plots() {
		if plot.ClusterNumber == nil {
			continue
		}
		clusters[*plot.ClusterNumber] = append(clusters[*plot.ClusterNumber], plot)
	}

	clusterNumbers := make([]int, 0, len(clusters))
	for number := range clusters {
		clusterNumbers = append(clusterNumbers, number)
	}
	sort.Ints(clusterNumbers)

	var selected []models.MonitoringPlot
	taken := 0
	for _, number := range clusterNumbers {
		if taken == requestedCount {
			break
		}
		plots := clusters[number]
		if !allPlanted(plots, planted) {
			continue
		}
		sort.SliceStable(plots, func(i, j int) bool {
			return plots[i].PlotNumber < plots[j].PlotNumber
		})
		selected = append(selected, plots...)
		taken++
	}

	return selected
}

func allPlanted(plots []models.MonitoringPlot, planted geometry.PlotPredicate) bool {
	for _, plot := range plots {
		if !planted(plot.ID) {
			return false
		}
	}
	return true
}
