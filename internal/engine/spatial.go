package engine

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"

	"github.com/roach88/sieve/internal/queryir"
)

// geometry reads a record field as a geometry. found is false for a
// missing or null field.
func (m matcher) geometry(field string) (g orb.Geometry, found bool, err error) {
	raw, _ := lookup(m.record, field)
	switch v := raw.(type) {
	case nil:
		return nil, false, nil
	case orb.Geometry:
		return v, true, nil
	case string:
		g, err := wkt.Unmarshal(v)
		if err != nil {
			return nil, false, invalidGeometry(field, "invalid WKT %q: %v", v, err)
		}
		return g, true, nil
	case []float64:
		if len(v) != 2 {
			return nil, false, invalidGeometry(field, "coordinate pair has %d values", len(v))
		}
		return orb.Point{v[0], v[1]}, true, nil
	case []any:
		if len(v) != 2 {
			return nil, false, invalidGeometry(field, "coordinate pair has %d values", len(v))
		}
		x, okX := coordinate(v[0])
		y, okY := coordinate(v[1])
		if !okX || !okY {
			return nil, false, invalidGeometry(field, "coordinate pair must hold two numbers")
		}
		return orb.Point{x, y}, true, nil
	default:
		return nil, false, invalidGeometry(field, "cannot read %T as a geometry", raw)
	}
}

func coordinate(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		nv, ok := native(v)
		if !ok {
			return 0, false
		}
		switch x := nv.(type) {
		case int64:
			return float64(x), true
		case float64:
			return x, true
		}
		return 0, false
	}
}

func (m matcher) spatial(pred queryir.Spatial) (bool, error) {
	g, found, err := m.geometry(pred.Field)
	if err != nil || !found {
		return false, err
	}
	switch pred.Relation {
	case queryir.RelWithin:
		return withinRegion(g, pred.Geometry), nil
	case queryir.RelIntersects:
		return intersects(g, pred.Geometry), nil
	default:
		return false, invalidGeometry(pred.Field, "unknown relation %s", pred.Relation)
	}
}

func (m matcher) near(pred queryir.Near) (bool, error) {
	g, found, err := m.geometry(pred.Field)
	if err != nil || !found {
		return false, err
	}
	p, ok := g.(orb.Point)
	if !ok {
		p = g.Bound().Center()
	}
	if m.geodesic {
		return geo.Distance(p, pred.Point) <= pred.Distance, nil
	}
	return planar.Distance(p, pred.Point) <= pred.Distance, nil
}

// withinRegion reports whether g lies inside region: every vertex and every
// edge midpoint is inside, and no edge properly crosses the region's
// boundary, which catches edges leaving a concave region between vertices.
// A region without area contains only its own vertices.
func withinRegion(g, region orb.Geometry) bool {
	pts := vertices(g)
	if len(pts) == 0 {
		return false
	}
	if !areal(region) {
		own := vertices(region)
		for _, p := range pts {
			if !hasPoint(own, p) {
				return false
			}
		}
		return true
	}
	for _, p := range pts {
		if !contains(region, p) {
			return false
		}
	}
	boundary := segments(region)
	for _, e := range segments(g) {
		if !contains(region, midpoint(e[0], e[1])) {
			return false
		}
		for _, b := range boundary {
			if segmentsProperlyCross(e[0], e[1], b[0], b[1]) {
				return false
			}
		}
	}
	return true
}

func midpoint(a, b orb.Point) orb.Point {
	return orb.Point{(a.X() + b.X()) / 2, (a.Y() + b.Y()) / 2}
}

// intersects reports whether a and b share any point: a vertex of one inside
// the other's area, a shared vertex or two crossing segments.
func intersects(a, b orb.Geometry) bool {
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}
	pa, pb := vertices(a), vertices(b)
	if areal(b) {
		for _, p := range pa {
			if contains(b, p) {
				return true
			}
		}
	}
	if areal(a) {
		for _, p := range pb {
			if contains(a, p) {
				return true
			}
		}
	}
	for _, p := range pa {
		if hasPoint(pb, p) {
			return true
		}
	}
	for _, sa := range segments(a) {
		for _, sb := range segments(b) {
			if segmentsCross(sa[0], sa[1], sb[0], sb[1]) {
				return true
			}
		}
	}
	return false
}

func areal(g orb.Geometry) bool {
	switch v := g.(type) {
	case orb.Polygon, orb.MultiPolygon, orb.Bound, orb.Ring:
		return true
	case orb.Collection:
		for _, sub := range v {
			if areal(sub) {
				return true
			}
		}
	}
	return false
}

func contains(area orb.Geometry, p orb.Point) bool {
	switch v := area.(type) {
	case orb.Polygon:
		return planar.PolygonContains(v, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(v, p)
	case orb.Ring:
		return planar.RingContains(v, p)
	case orb.Bound:
		return v.Contains(p)
	case orb.Collection:
		for _, sub := range v {
			if areal(sub) && contains(sub, p) {
				return true
			}
		}
	}
	return false
}

func vertices(g orb.Geometry) []orb.Point {
	switch v := g.(type) {
	case orb.Point:
		return []orb.Point{v}
	case orb.MultiPoint:
		return v
	case orb.LineString:
		return v
	case orb.Ring:
		return v
	case orb.MultiLineString:
		var out []orb.Point
		for _, ls := range v {
			out = append(out, ls...)
		}
		return out
	case orb.Polygon:
		var out []orb.Point
		for _, r := range v {
			out = append(out, r...)
		}
		return out
	case orb.MultiPolygon:
		var out []orb.Point
		for _, poly := range v {
			out = append(out, vertices(poly)...)
		}
		return out
	case orb.Bound:
		return vertices(v.ToPolygon())
	case orb.Collection:
		var out []orb.Point
		for _, sub := range v {
			out = append(out, vertices(sub)...)
		}
		return out
	default:
		return nil
	}
}

func segments(g orb.Geometry) [][2]orb.Point {
	var out [][2]orb.Point
	path := func(pts []orb.Point) {
		for i := 1; i < len(pts); i++ {
			out = append(out, [2]orb.Point{pts[i-1], pts[i]})
		}
	}
	switch v := g.(type) {
	case orb.LineString:
		path(v)
	case orb.Ring:
		path(v)
	case orb.MultiLineString:
		for _, ls := range v {
			path(ls)
		}
	case orb.Polygon:
		for _, r := range v {
			path(r)
		}
	case orb.MultiPolygon:
		for _, poly := range v {
			for _, r := range poly {
				path(r)
			}
		}
	case orb.Bound:
		return segments(v.ToPolygon())
	case orb.Collection:
		for _, sub := range v {
			out = append(out, segments(sub)...)
		}
	}
	return out
}

func hasPoint(pts []orb.Point, p orb.Point) bool {
	for _, q := range pts {
		if q.Equal(p) {
			return true
		}
	}
	return false
}

// segmentsCross reports whether segment p1p2 and segment q1q2 share a point.
func segmentsCross(p1, p2, q1, q2 orb.Point) bool {
	d1 := orientation(q1, q2, p1)
	d2 := orientation(q1, q2, p2)
	d3 := orientation(p1, p2, q1)
	d4 := orientation(p1, p2, q2)
	if segmentsProperlyCross(p1, p2, q1, q2) {
		return true
	}
	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

// segmentsProperlyCross reports whether the segments cross at a point
// interior to both. Touching and collinear overlap do not count.
func segmentsProperlyCross(p1, p2, q1, q2 orb.Point) bool {
	d1 := orientation(q1, q2, p1)
	d2 := orientation(q1, q2, p2)
	d3 := orientation(p1, p2, q1)
	d4 := orientation(p1, p2, q2)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func orientation(a, b, c orb.Point) float64 {
	return (b.X()-a.X())*(c.Y()-a.Y()) - (b.Y()-a.Y())*(c.X()-a.X())
}

func onSegment(a, b, p orb.Point) bool {
	return min(a.X(), b.X()) <= p.X() && p.X() <= max(a.X(), b.X()) &&
		min(a.Y(), b.Y()) <= p.Y() && p.Y() <= max(a.Y(), b.Y())
}
