package services

import (
	"observation-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

// identityRandom leaves candidate order untouched so draws are predictable.
type identityRandom struct {
	calls int
}

func (r *identityRandom) Shuffle(n int, swap func(i, j int)) {
	r.calls++
}

// reverseRandom reverses the candidates.
type reverseRandom struct{}

func (reverseRandom) Shuffle(n int, swap func(i, j int)) {
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		swap(i, j)
	}
}

type zoneDraft struct {
	zone     models.PlantingZone
	subzones []*models.PlantingSubzone
}

// siteBuilder assembles a planting site. Zones and subzones are held by
// pointer until build so helpers can keep adding plots to them.
type siteBuilder struct {
	id         uuid.UUID
	zones      []*zoneDraft
	nextPlotNo int64
}

func newSiteBuilder() *siteBuilder {
	return &siteBuilder{id: uuid.New(), nextPlotNo: 1}
}

func (b *siteBuilder) zone(name string, permanentClusters, temporaryPlots int) *zoneDraft {
	z := &zoneDraft{zone: models.PlantingZone{
		ID:                   uuid.New(),
		PlantingSiteID:       b.id,
		Name:                 name,
		AreaHa:               decimal.NewFromInt(100),
		NumPermanentClusters: permanentClusters,
		NumTemporaryPlots:    temporaryPlots,
	}}
	b.zones = append(b.zones, z)
	return z
}

func (b *siteBuilder) subzone(z *zoneDraft, name string, hasPlants bool) *models.PlantingSubzone {
	subzone := &models.PlantingSubzone{
		ID:             uuid.New(),
		PlantingZoneID: z.zone.ID,
		Name:           name,
		FullName:       z.zone.Name + "-" + name,
		AreaHa:         decimal.NewFromInt(10),
		HasPlants:      hasPlants,
	}
	z.subzones = append(z.subzones, subzone)
	return subzone
}

// plot adds a 100m plot (one hectare) to the subzone. cluster may be nil.
func (b *siteBuilder) plot(subzone *models.PlantingSubzone, cluster *int) models.MonitoringPlot {
	plot := models.MonitoringPlot{
		ID:                uuid.New(),
		PlantingSubzoneID: subzone.ID,
		PlotNumber:        b.nextPlotNo,
		ClusterNumber:     cluster,
		SizeMeters:        100,
	}
	b.nextPlotNo++
	subzone.Plots = append(subzone.Plots, plot)
	return plot
}

func (b *siteBuilder) plots(subzone *models.PlantingSubzone, n int) []models.MonitoringPlot {
	plots := make([]models.MonitoringPlot, 0, n)
	for range n {
		plots = append(plots, b.plot(subzone, nil))
	}
	return plots
}

func (z *zoneDraft) build() models.PlantingZone {
	zone := z.zone
	zone.Subzones = nil
	for _, subzone := range z.subzones {
		zone.Subzones = append(zone.Subzones, *subzone)
	}
	return zone
}

func (b *siteBuilder) build() *models.PlantingSite {
	site := &models.PlantingSite{ID: b.id, Name: "Test Site"}
	for _, z := range b.zones {
		site.Zones = append(site.Zones, z.build())
	}
	return site
}

func cluster(n int) *int {
	return &n
}

func plotIDs(plots []models.MonitoringPlot) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(plots))
	for _, p := range plots {
		ids = append(ids, p.ID)
	}
	return ids
}

func allPlantedPredicate(uuid.UUID) bool { return true }

func plantedExcept(excluded ...uuid.UUID) func(uuid.UUID) bool {
	skip := make(map[uuid.UUID]bool, len(excluded))
	for _, id := range excluded {
		skip[id] = true
	}
	return func(id uuid.UUID) bool { return !skip[id] }
}

func intPtr(v int) *int {
	return &v
}
