package geometry

import (
	"testing"

	"observation-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

func square(t *testing.T, x, y, size float64) *geom.Polygon {
	t.Helper()
	polygon, err := geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{{
		{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}, {x, y},
	}})
	require.NoError(t, err)
	return polygon
}

func multi(t *testing.T, polygons ...*geom.Polygon) *geom.MultiPolygon {
	t.Helper()
	mp := geom.NewMultiPolygon(geom.XY)
	for _, p := range polygons {
		require.NoError(t, mp.Push(p))
	}
	return mp
}

func squareWithHole(t *testing.T) *geom.Polygon {
	t.Helper()
	polygon, err := geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{
		{{0, 0}, {100, 0}, {100, 100}, {0, 100}, {0, 0}},
		{{40, 40}, {60, 40}, {60, 60}, {40, 60}, {40, 40}},
	})
	require.NoError(t, err)
	return polygon
}

// ============================================================================
// TEST SUITE 1: POLYGON CONTAINMENT
// ============================================================================

func TestPolygonWithin_InsideBoundary(t *testing.T) {
	assert.True(t, PolygonWithin(square(t, 10, 10, 5), multi(t, square(t, 0, 0, 100))))
}

func TestPolygonWithin_SharedEdgeCountsAsInside(t *testing.T) {
	assert.True(t, PolygonWithin(square(t, 0, 0, 30), multi(t, square(t, 0, 0, 100))))
}

func TestPolygonWithin_StraddlingBoundary(t *testing.T) {
	assert.False(t, PolygonWithin(square(t, 90, 90, 30), multi(t, square(t, 0, 0, 100))))
}

func TestPolygonWithin_SecondPolygonOfMultiPolygon(t *testing.T) {
	outer := multi(t, square(t, 0, 0, 10), square(t, 200, 200, 50))
	assert.True(t, PolygonWithin(square(t, 210, 210, 10), outer))
}

func TestPolygonWithin_InsideHole(t *testing.T) {
	assert.False(t, PolygonWithin(square(t, 45, 45, 5), multi(t, squareWithHole(t))))
}

func TestPolygonWithin_TouchingHoleCorner(t *testing.T) {
	assert.True(t, PolygonWithin(square(t, 30, 30, 10), multi(t, squareWithHole(t))))
}

func TestPolygonWithin_HoleSmallerThanPlot(t *testing.T) {
	assert.False(t, PolygonWithin(square(t, 30, 30, 40), multi(t, squareWithHole(t))))
}

func TestPolygonWithin_EdgeCrossesConcaveNotch(t *testing.T) {
	uShape, err := geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{{
		{0, 0}, {100, 0}, {100, 100}, {60, 100}, {60, 40}, {40, 40}, {40, 100}, {0, 100}, {0, 0},
	}})
	require.NoError(t, err)
	plot, err := geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{{
		{20, 50}, {80, 50}, {80, 90}, {20, 90}, {20, 50},
	}})
	require.NoError(t, err)

	assert.False(t, PolygonWithin(plot, multi(t, uShape)), "every vertex is inside but the top edge spans the notch")
	assert.True(t, PolygonWithin(square(t, 5, 50, 30), multi(t, uShape)))
}

func TestPolygonWithin_NilInputs(t *testing.T) {
	assert.False(t, PolygonWithin(nil, multi(t, square(t, 0, 0, 10))))
	assert.False(t, PolygonWithin(square(t, 0, 0, 1), nil))
}

// ============================================================================
// TEST SUITE 2: PLANTED PLOT PREDICATE
// ============================================================================

func TestNewPlantedPlotPredicate(t *testing.T) {
	inside := models.MonitoringPlot{ID: uuid.New(), Boundary: square(t, 10, 10, 5)}
	outside := models.MonitoringPlot{ID: uuid.New(), Boundary: square(t, 500, 500, 5)}
	noBoundary := models.MonitoringPlot{ID: uuid.New()}
	unplantedPlot := models.MonitoringPlot{ID: uuid.New()}

	plantedSubzone := models.PlantingSubzone{
		ID:        uuid.New(),
		HasPlants: true,
		Boundary:  multi(t, square(t, 0, 0, 100)),
		Plots:     []models.MonitoringPlot{inside, outside, noBoundary},
	}
	unplantedSubzone := models.PlantingSubzone{
		ID:    uuid.New(),
		Plots: []models.MonitoringPlot{unplantedPlot},
	}
	site := &models.PlantingSite{
		ID: uuid.New(),
		Zones: []models.PlantingZone{{
			ID:       uuid.New(),
			Subzones: []models.PlantingSubzone{plantedSubzone, unplantedSubzone},
		}},
	}

	t.Run("no requested subzones", func(t *testing.T) {
		planted := NewPlantedPlotPredicate(site, nil)
		assert.True(t, planted(inside.ID))
		assert.False(t, planted(outside.ID), "plot outside the subzone boundary")
		assert.True(t, planted(noBoundary.ID), "plot without a boundary is trusted")
		assert.False(t, planted(unplantedPlot.ID))
		assert.False(t, planted(uuid.New()), "unknown plot")
	})

	t.Run("requested subzones exclude the rest", func(t *testing.T) {
		planted := NewPlantedPlotPredicate(site, map[uuid.UUID]bool{uuid.New(): true})
		assert.False(t, planted(inside.ID))
		assert.False(t, planted(noBoundary.ID))
	})
}

func TestSubzoneSelectable(t *testing.T) {
	subzone := models.PlantingSubzone{ID: uuid.New(), HasPlants: true}

	assert.True(t, SubzoneSelectable(subzone, nil))
	assert.True(t, SubzoneSelectable(subzone, map[uuid.UUID]bool{subzone.ID: true}))
	assert.False(t, SubzoneSelectable(subzone, map[uuid.UUID]bool{uuid.New(): true}))

	subzone.HasPlants = false
	assert.False(t, SubzoneSelectable(subzone, map[uuid.UUID]bool{subzone.ID: true}))
}
