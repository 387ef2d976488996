package queryir

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// ParseGeometry reads a WKT geometry and checks that it is well formed.
func ParseGeometry(text string) (orb.Geometry, error) {
	geom, err := wkt.Unmarshal(text)
	if err != nil {
		return nil, fmt.Errorf("invalid WKT %q: %w", text, err)
	}
	if err := ValidateGeometry(geom); err != nil {
		return nil, err
	}
	return geom, nil
}

// ValidateGeometry checks ring closure and minimum point counts.
func ValidateGeometry(geom orb.Geometry) error {
	if geom == nil {
		return fmt.Errorf("geometry is nil")
	}

	switch g := geom.(type) {
	case orb.Point:
		return nil
	case orb.MultiPoint:
		if len(g) == 0 {
			return fmt.Errorf("multipoint is empty")
		}
		return nil
	case orb.LineString:
		if len(g) < 2 {
			return fmt.Errorf("linestring must have at least 2 points, has %d", len(g))
		}
		return nil
	case orb.MultiLineString:
		if len(g) == 0 {
			return fmt.Errorf("multilinestring is empty")
		}
		for i, ls := range g {
			if len(ls) < 2 {
				return fmt.Errorf("multilinestring[%d] must have at least 2 points, has %d", i, len(ls))
			}
		}
		return nil
	case orb.Polygon:
		if len(g) == 0 {
			return fmt.Errorf("polygon has no rings")
		}
		for i, ring := range g {
			if len(ring) < 4 {
				return fmt.Errorf("polygon ring[%d] must have at least 4 points, has %d", i, len(ring))
			}
			if !ring.Closed() {
				return fmt.Errorf("polygon ring[%d] is not closed", i)
			}
		}
		return nil
	case orb.MultiPolygon:
		if len(g) == 0 {
			return fmt.Errorf("multipolygon is empty")
		}
		for i, poly := range g {
			if err := ValidateGeometry(poly); err != nil {
				return fmt.Errorf("multipolygon[%d]: %w", i, err)
			}
		}
		return nil
	case orb.Collection:
		if len(g) == 0 {
			return fmt.Errorf("geometry collection is empty")
		}
		for i, inner := range g {
			if err := ValidateGeometry(inner); err != nil {
				return fmt.Errorf("collection[%d]: %w", i, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported geometry type: %T", geom)
	}
}
