package services

import (
	"testing"

	"observation-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST SUITE 1: PERMANENT CLUSTER SELECTION
// ============================================================================

func TestSelectPermanentClusters_AscendingClusterOrder(t *testing.T) {
	b := newSiteBuilder()
	z := b.zone("Zone 1", 2, 0)
	sz := b.subzone(z, "A", true)
	c3 := b.plot(sz, cluster(3))
	c1a := b.plot(sz, cluster(1))
	c2 := b.plot(sz, cluster(2))
	c1b := b.plot(sz, cluster(1))
	zone := z.build()

	selected := SelectPermanentClusters(&zone, 2, allPlantedPredicate)

	assert.Equal(t, []uuid.UUID{c1a.ID, c1b.ID, c2.ID}, plotIDs(selected))
	assert.NotContains(t, plotIDs(selected), c3.ID)
}

func TestSelectPermanentClusters_SkipsClusterWithUnplantedPlot(t *testing.T) {
	b := newSiteBuilder()
	z := b.zone("Zone 1", 2, 0)
	sz := b.subzone(z, "A", true)
	c1a := b.plot(sz, cluster(1))
	b.plot(sz, cluster(1))
	c2 := b.plot(sz, cluster(2))
	c3 := b.plot(sz, cluster(3))
	zone := z.build()

	selected := SelectPermanentClusters(&zone, 2, plantedExcept(c1a.ID))

	assert.Equal(t, []uuid.UUID{c2.ID, c3.ID}, plotIDs(selected),
		"a cluster with any ineligible plot is skipped and the next one taken")
}

func TestSelectPermanentClusters_ClusterSpanningSubzones(t *testing.T) {
	b := newSiteBuilder()
	z := b.zone("Zone 1", 1, 0)
	planted := b.subzone(z, "A", true)
	unplanted := b.subzone(z, "B", false)
	c1a := b.plot(planted, cluster(1))
	c1b := b.plot(unplanted, cluster(1))
	c2 := b.plot(planted, cluster(2))
	zone := z.build()

	selected := SelectPermanentClusters(&zone, 1, plantedExcept(c1b.ID))

	assert.Equal(t, []uuid.UUID{c2.ID}, plotIDs(selected))
	assert.NotContains(t, plotIDs(selected), c1a.ID)
}

func TestSelectPermanentClusters_FewerEligibleThanRequested(t *testing.T) {
	b := newSiteBuilder()
	z := b.zone("Zone 1", 5, 0)
	sz := b.subzone(z, "A", true)
	c1 := b.plot(sz, cluster(1))
	c2 := b.plot(sz, cluster(2))
	b.plot(sz, nil)
	zone := z.build()

	selected := SelectPermanentClusters(&zone, 5, allPlantedPredicate)

	assert.Equal(t, []uuid.UUID{c1.ID, c2.ID}, plotIDs(selected))
}

func TestSelectPermanentClusters_ZeroRequested(t *testing.T) {
	b := newSiteBuilder()
	z := b.zone("Zone 1", 0, 0)
	b.plot(b.subzone(z, "A", true), cluster(1))
	zone := z.build()

	assert.Empty(t, SelectPermanentClusters(&zone, 0, allPlantedPredicate))
}

// ============================================================================
// TEST SUITE 2: TEMPORARY SLOT DISTRIBUTION
// ============================================================================

func TestDistributeTemporarySlots_EvenSplit(t *testing.T) {
	b := newSiteBuilder()
	z := b.zone("Zone 1", 0, 6)
	a := b.subzone(z, "A", true)
	bb := b.subzone(z, "B", true)
	c := b.subzone(z, "C", true)
	zone := z.build()

	slots := DistributeTemporarySlots(&zone, nil, nil)

	assert.Equal(t, map[uuid.UUID]int{a.ID: 2, bb.ID: 2, c.ID: 2}, slots)
}

func TestDistributeTemporarySlots_RemainderToFewestPermanentPlots(t *testing.T) {
	b := newSiteBuilder()
	z := b.zone("Zone 1", 0, 5)
	a := b.subzone(z, "A", true)
	bb := b.subzone(z, "B", true)
	c := b.subzone(z, "C", true)
	zone := z.build()

	slots := DistributeTemporarySlots(&zone, map[uuid.UUID]int{a.ID: 4, bb.ID: 0, c.ID: 1}, nil)

	assert.Equal(t, 1, slots[a.ID])
	assert.Equal(t, 2, slots[bb.ID])
	assert.Equal(t, 2, slots[c.ID])
}

func TestDistributeTemporarySlots_TiesKeepDeclarationOrder(t *testing.T) {
	b := newSiteBuilder()
	z := b.zone("Zone 1", 0, 2)
	a := b.subzone(z, "A", true)
	bb := b.subzone(z, "B", true)
	c := b.subzone(z, "C", true)
	zone := z.build()

	slots := DistributeTemporarySlots(&zone, nil, nil)

	assert.Equal(t, 1, slots[a.ID])
	assert.Equal(t, 1, slots[bb.ID])
	assert.Equal(t, 0, slots[c.ID])
}

func TestDistributeTemporarySlots_TiesFavorSelectableSubzones(t *testing.T) {
	b := newSiteBuilder()
	z := b.zone("Zone 1", 0, 1)
	unplanted := b.subzone(z, "A", false)
	planted := b.subzone(z, "B", true)
	zone := z.build()

	slots := DistributeTemporarySlots(&zone, nil, nil)

	assert.Equal(t, 0, slots[unplanted.ID])
	assert.Equal(t, 1, slots[planted.ID])
}

func TestDistributeTemporarySlots_TiesFavorRequestedSubzones(t *testing.T) {
	b := newSiteBuilder()
	z := b.zone("Zone 1", 0, 1)
	other := b.subzone(z, "A", true)
	wanted := b.subzone(z, "B", true)
	zone := z.build()

	slots := DistributeTemporarySlots(&zone, nil, map[uuid.UUID]bool{wanted.ID: true})

	assert.Equal(t, 0, slots[other.ID])
	assert.Equal(t, 1, slots[wanted.ID])
}

func TestDistributeTemporarySlots_FewerPermanentPlotsBeatsSelectability(t *testing.T) {
	b := newSiteBuilder()
	z := b.zone("Zone 1", 0, 1)
	unplanted := b.subzone(z, "A", false)
	planted := b.subzone(z, "B", true)
	zone := z.build()

	slots := DistributeTemporarySlots(&zone, map[uuid.UUID]int{planted.ID: 4}, nil)

	assert.Equal(t, 0, slots[unplanted.ID], "remainder slot lands on the unplanted subzone and is dropped")
	assert.Equal(t, 0, slots[planted.ID])
}

func TestDistributeTemporarySlots_UnplantedShareIsDiscarded(t *testing.T) {
	b := newSiteBuilder()
	z := b.zone("Zone 1", 0, 4)
	planted := b.subzone(z, "A", true)
	unplanted := b.subzone(z, "B", false)
	zone := z.build()

	slots := DistributeTemporarySlots(&zone, nil, nil)

	assert.Equal(t, 2, slots[planted.ID], "unplanted share is not redistributed")
	assert.Equal(t, 0, slots[unplanted.ID])
}

func TestDistributeTemporarySlots_RequestedSubzonesOnly(t *testing.T) {
	b := newSiteBuilder()
	z := b.zone("Zone 1", 0, 4)
	a := b.subzone(z, "A", true)
	bb := b.subzone(z, "B", true)
	zone := z.build()

	slots := DistributeTemporarySlots(&zone, nil, map[uuid.UUID]bool{bb.ID: true})

	assert.Equal(t, 0, slots[a.ID])
	assert.Equal(t, 2, slots[bb.ID])
}

func TestDistributeTemporarySlots_TotalNeverExceedsZoneCount(t *testing.T) {
	for total := 0; total <= 11; total++ {
		b := newSiteBuilder()
		z := b.zone("Zone 1", 0, total)
		for _, name := range []string{"A", "B", "C", "D"} {
			b.subzone(z, name, name != "C")
		}
		zone := z.build()

		sum := 0
		for _, n := range DistributeTemporarySlots(&zone, nil, nil) {
			sum += n
		}
		assert.LessOrEqual(t, sum, total)
	}
}

func TestDistributeTemporarySlots_NoSubzones(t *testing.T) {
	zone := models.PlantingZone{ID: uuid.New(), NumTemporaryPlots: 3}
	assert.Empty(t, DistributeTemporarySlots(&zone, nil, nil))
}

// ============================================================================
// TEST SUITE 3: TEMPORARY PLOT CHOICE
// ============================================================================

func TestChooseTemporaryPlots_ExcludesPermanentAndIneligible(t *testing.T) {
	b := newSiteBuilder()
	z := b.zone("Zone 1", 0, 0)
	sz := b.subzone(z, "A", true)
	plots := b.plots(sz, 4)

	permanent := map[uuid.UUID]bool{plots[0].ID: true}
	chosen := ChooseTemporaryPlots(*sz, 2, permanent, plantedExcept(plots[1].ID), &identityRandom{})

	assert.Equal(t, []uuid.UUID{plots[2].ID, plots[3].ID}, plotIDs(chosen))
}

func TestChooseTemporaryPlots_ShortfallReturnsAllCandidates(t *testing.T) {
	b := newSiteBuilder()
	z := b.zone("Zone 1", 0, 0)
	sz := b.subzone(z, "A", true)
	plots := b.plots(sz, 2)
	rng := &identityRandom{}

	chosen := ChooseTemporaryPlots(*sz, 5, nil, allPlantedPredicate, rng)

	assert.ElementsMatch(t, plotIDs(plots), plotIDs(chosen))
	assert.Zero(t, rng.calls, "no draw is needed when every candidate is taken")
}

func TestChooseTemporaryPlots_UsesRandomSource(t *testing.T) {
	b := newSiteBuilder()
	z := b.zone("Zone 1", 0, 0)
	sz := b.subzone(z, "A", true)
	plots := b.plots(sz, 4)

	chosen := ChooseTemporaryPlots(*sz, 2, nil, allPlantedPredicate, reverseRandom{})

	assert.Equal(t, []uuid.UUID{plots[3].ID, plots[2].ID}, plotIDs(chosen))
}

func TestChooseTemporaryPlots_ZeroCount(t *testing.T) {
	b := newSiteBuilder()
	z := b.zone("Zone 1", 0, 0)
	sz := b.subzone(z, "A", true)
	b.plots(sz, 3)

	assert.Empty(t, ChooseTemporaryPlots(*sz, 0, nil, allPlantedPredicate, &identityRandom{}))
}

// ============================================================================
// TEST SUITE 4: SITE-WIDE ASSIGNMENT
// ============================================================================

func TestAssignPlots_PermanentThenTemporaryPerZone(t *testing.T) {
	b := newSiteBuilder()
	z := b.zone("Zone 1", 1, 2)
	a := b.subzone(z, "A", true)
	bb := b.subzone(z, "B", true)
	p1 := b.plot(a, cluster(1))
	p2 := b.plot(a, cluster(1))
	tempA := b.plots(a, 2)
	tempB := b.plots(bb, 2)
	site := b.build()

	assignments := AssignPlots(site, nil, &identityRandom{})

	require.Len(t, assignments, 4)
	assert.Equal(t, models.PlotAssignment{MonitoringPlotID: p1.ID, IsPermanent: true}, assignments[0])
	assert.Equal(t, models.PlotAssignment{MonitoringPlotID: p2.ID, IsPermanent: true}, assignments[1])
	assert.Equal(t, models.PlotAssignment{MonitoringPlotID: tempA[0].ID}, assignments[2])
	assert.Equal(t, models.PlotAssignment{MonitoringPlotID: tempB[0].ID}, assignments[3])
}

func TestAssignPlots_NoPlotAssignedTwice(t *testing.T) {
	b := newSiteBuilder()
	z := b.zone("Zone 1", 2, 10)
	sz := b.subzone(z, "A", true)
	for i := 1; i <= 3; i++ {
		b.plot(sz, cluster(i))
	}
	b.plots(sz, 3)
	site := b.build()

	assignments := AssignPlots(site, nil, reverseRandom{})

	seen := make(map[uuid.UUID]bool)
	for _, a := range assignments {
		assert.False(t, seen[a.MonitoringPlotID], "plot %s assigned twice", a.MonitoringPlotID)
		seen[a.MonitoringPlotID] = true
	}
	assert.Len(t, assignments, 6, "2 permanent plus the 4 non-permanent candidates")
}

func TestAssignPlots_SkipsZoneWithoutPlants(t *testing.T) {
	b := newSiteBuilder()
	empty := b.zone("Zone 1", 1, 2)
	sz := b.subzone(empty, "A", false)
	b.plot(sz, cluster(1))
	b.plots(sz, 2)

	planted := b.zone("Zone 2", 0, 1)
	only := b.plots(b.subzone(planted, "A", true), 1)
	site := b.build()

	assignments := AssignPlots(site, nil, &identityRandom{})

	assert.Equal(t, []models.PlotAssignment{{MonitoringPlotID: only[0].ID}}, assignments)
}

func TestAssignPlots_RequestedSubzonesLimitSelection(t *testing.T) {
	b := newSiteBuilder()
	z := b.zone("Zone 1", 0, 2)
	a := b.subzone(z, "A", true)
	bb := b.subzone(z, "B", true)
	b.plots(a, 3)
	wanted := b.plots(bb, 3)
	site := b.build()

	assignments := AssignPlots(site, map[uuid.UUID]bool{bb.ID: true}, &identityRandom{})

	assert.Equal(t, []models.PlotAssignment{{MonitoringPlotID: wanted[0].ID}}, assignments)
}

func TestAssignPlots_RemainderSlotReachesPlantedSubzone(t *testing.T) {
	b := newSiteBuilder()
	z := b.zone("Zone 1", 0, 1)
	b.plots(b.subzone(z, "A", false), 3)
	planted := b.plots(b.subzone(z, "B", true), 3)
	site := b.build()

	assignments := AssignPlots(site, nil, &identityRandom{})

	assert.Equal(t, []models.PlotAssignment{{MonitoringPlotID: planted[0].ID}}, assignments)
}

func TestAssignPlots_NothingEligible(t *testing.T) {
	b := newSiteBuilder()
	z := b.zone("Zone 1", 1, 3)
	b.plots(b.subzone(z, "A", false), 3)

	assert.Empty(t, AssignPlots(b.build(), nil, &identityRandom{}))
}

func TestLockedRandom_IsPermutation(t *testing.T) {
	rng := NewLockedRandom(1, 2)
	values := []int{1, 2, 3, 4, 5, 6}

	rng.Shuffle(len(values), func(i, j int) {
		values[i], values[j] = values[j], values[i]
	})

	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6}, values)
}
