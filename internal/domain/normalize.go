package domain

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Normalize explodes multi-part geometries into single-part features so the
// topology builder only ever sees Point and LineString inputs. A MultiPoint
// with N members yields N Point features; a MultiLineString yields N
// LineString features. Every part carries a copy of the parent's full
// property set. Output order is stable: source order, then part order, which
// downstream ID minting depends on.
//
// Geometry types with no multi-part handling (Polygon and friends) pass
// through unchanged; schema validation rejects them per element kind.
func Normalize(features []*geojson.Feature) []*geojson.Feature {
	out := make([]*geojson.Feature, 0, len(features))
	for _, f := range features {
		switch g := f.Geometry.(type) {
		case orb.MultiPoint:
			for _, p := range g {
				out = append(out, partFeature(f, p))
			}
		case orb.MultiLineString:
			for _, ls := range g {
				out = append(out, partFeature(f, ls.Clone()))
			}
		default:
			out = append(out, f)
		}
	}
	return out
}

// partFeature creates a single-part feature inheriting the parent's
// properties. Properties are cloned so parts never alias the parent map.
func partFeature(parent *geojson.Feature, g orb.Geometry) *geojson.Feature {
	f := geojson.NewFeature(g)
	f.ID = parent.ID
	f.Properties = parent.Properties.Clone()
	return f
}
