package services

import (
	"sort"

	"observation-service/internal/geometry"
	"observation-service/internal/models"

	"github.com/google/uuid"
)

// DistributeTemporarySlots spreads the zone's temporary plot count across all
// of its subzones, planted or not. Each subzone gets an equal share; the
// remaining slots go to the subzones with the fewest permanent plots. On equal
// permanent counts a selectable subzone goes before one that cannot be
// sampled, then declaration order decides. Subzones that cannot be sampled
// then have their slots dropped without redistribution.
func DistributeTemporarySlots(
	zone *models.PlantingZone,
	permanentPlotsBySubzone map[uuid.UUID]int,
	requested map[uuid.UUID]bool,
) map[uuid.UUID]int {
	slots := make(map[uuid.UUID]int, len(zone.Subzones))
	for _, subzone := range zone.Subzones {
		slots[subzone.ID] = 0
	}

	numSubzones := len(zone.Subzones)
	if numSubzones == 0 || zone.NumTemporaryPlots <= 0 {
		return slots
	}

	base := zone.NumTemporaryPlots / numSubzones
	remainder := zone.NumTemporaryPlots % numSubzones

	selectable := make([]bool, numSubzones)
	order := make([]int, numSubzones)
	for i, subzone := range zone.Subzones {
		order[i] = i
		selectable[i] = geometry.SubzoneSelectable(subzone, requested)
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		pa := permanentPlotsBySubzone[zone.Subzones[ia].ID]
		pb := permanentPlotsBySubzone[zone.Subzones[ib].ID]
		if pa != pb {
			return pa < pb
		}
		return selectable[ia] && !selectable[ib]
	})

	for _, subzone := range zone.Subzones {
		slots[subzone.ID] = base
	}
	for _, idx := range order[:remainder] {
		slots[zone.Subzones[idx].ID]++
	}

	for i, subzone := range zone.Subzones {
		if !selectable[i] {
			slots[subzone.ID] = 0
		}
	}

	return slots
}
