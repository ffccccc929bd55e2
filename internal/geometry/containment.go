package geometry

import (
	"observation-service/internal/models"

	"github.com/google/uuid"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"github.com/twpayne/go-geom/xy/location"
)

// PolygonWithin reports whether inner lies inside outer, counting points on
// outer's boundary as inside. inner is rejected when one of its vertices is
// outside outer or inside a hole, when one of its edges crosses an edge of
// outer, or when a vertex of outer lies strictly inside it (a notch or a hole
// smaller than the plot).
func PolygonWithin(inner *geom.Polygon, outer *geom.MultiPolygon) bool {
	if inner == nil || outer == nil || inner.NumLinearRings() == 0 {
		return false
	}

	exterior := inner.LinearRing(0)
	for i := 0; i < exterior.NumCoords(); i++ {
		if !pointInMultiPolygon(exterior.Layout(), exterior.Coord(i), outer) {
			return false
		}
	}

	for p := 0; p < outer.NumPolygons(); p++ {
		polygon := outer.Polygon(p)
		for r := 0; r < polygon.NumLinearRings(); r++ {
			ring := polygon.LinearRing(r)
			if ringsCross(exterior, ring) {
				return false
			}
			for i := 0; i < ring.NumCoords(); i++ {
				if strictlyInsideRing(ring.Layout(), ring.Coord(i), exterior) {
					return false
				}
			}
		}
	}
	return true
}

func pointInMultiPolygon(layout geom.Layout, point geom.Coord, mp *geom.MultiPolygon) bool {
	for i := 0; i < mp.NumPolygons(); i++ {
		polygon := mp.Polygon(i)
		if polygon.NumLinearRings() == 0 {
			continue
		}
		if !xy.IsPointInRing(layout, point, polygon.LinearRing(0).FlatCoords()) {
			continue
		}

		inHole := false
		for h := 1; h < polygon.NumLinearRings(); h++ {
			if strictlyInsideRing(layout, point, polygon.LinearRing(h)) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

// strictlyInsideRing is false for points on the ring itself.
func strictlyInsideRing(layout geom.Layout, point geom.Coord, ring *geom.LinearRing) bool {
	return xy.LocatePointInRing(layout, point, ring.FlatCoords()) == location.Interior
}

// ringsCross reports whether any edge of a properly crosses any edge of b.
// Edges that only touch or overlap do not count.
func ringsCross(a, b *geom.LinearRing) bool {
	for i := 0; i+1 < a.NumCoords(); i++ {
		p1, p2 := a.Coord(i), a.Coord(i+1)
		for j := 0; j+1 < b.NumCoords(); j++ {
			q1, q2 := b.Coord(j), b.Coord(j+1)
			if xy.OrientationIndex(p1, p2, q1)*xy.OrientationIndex(p1, p2, q2) < 0 &&
				xy.OrientationIndex(q1, q2, p1)*xy.OrientationIndex(q1, q2, p2) < 0 {
				return true
			}
		}
	}
	return false
}

// PlotPredicate answers whether a monitoring plot lies in a subzone that may
// be sampled.
type PlotPredicate func(plotID uuid.UUID) bool

// NewPlantedPlotPredicate evaluates every plot of the site once and returns a
// lookup over the result. A plot qualifies when its subzone has plants, the
// subzone is in requested (when requested is non-empty) and, if both
// boundaries are known, the plot polygon lies within the subzone boundary.
func NewPlantedPlotPredicate(site *models.PlantingSite, requested map[uuid.UUID]bool) PlotPredicate {
	planted := make(map[uuid.UUID]bool)

	for _, zone := range site.Zones {
		for _, subzone := range zone.Subzones {
			if !SubzoneSelectable(subzone, requested) {
				continue
			}
			for _, plot := range subzone.Plots {
				if plot.Boundary != nil && subzone.Boundary != nil && !PolygonWithin(plot.Boundary, subzone.Boundary) {
					continue
				}
				planted[plot.ID] = true
			}
		}
	}

	return func(plotID uuid.UUID) bool {
		return planted[plotID]
	}
}

// SubzoneSelectable reports whether plots may be drawn from the subzone at all.
func SubzoneSelectable(subzone models.PlantingSubzone, requested map[uuid.UUID]bool) bool {
	if !subzone.HasPlants {
		return false
	}
	if len(requested) > 0 && !requested[subzone.ID] {
		return false
	}
	return true
}
