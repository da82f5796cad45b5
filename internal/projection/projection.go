// Package projection resolves coordinate reference systems and reprojects
// GeoJSON geometry between them. All transforms are pure functions of their
// inputs; an unresolvable CRS fails loudly rather than being approximated.
package projection

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
	"github.com/wroge/wgs84"

	"github.com/aquaforge/netbuilder/internal/domain"
)

// WGS84Code is the EPSG code of the geographic lon/lat system the model
// treats as its canonical working CRS.
const WGS84Code = 4326

// CRS is a resolved coordinate reference system.
type CRS struct {
	Code   int
	system wgs84.CoordinateReferenceSystem
}

// Resolve parses a CRS identifier and looks it up in the EPSG repository.
// Accepted forms: "4326", "EPSG:4326", "epsg:4326", and the OGC URN form
// "urn:ogc:def:crs:EPSG::4326". Unknown identifiers and codes absent from
// the repository fail with InvalidProjection.
func Resolve(identifier string) (CRS, error) {
	code, err := parseCode(identifier)
	if err != nil {
		return CRS{}, err
	}

	system := wgs84.EPSG().Code(code)
	if system == nil {
		return CRS{}, &domain.BuildError{
			Kind:         domain.ErrInvalidProjection,
			FeatureIndex: -1,
			Detail:       "EPSG:" + strconv.Itoa(code) + " is not a supported coordinate reference system",
		}
	}
	return CRS{Code: code, system: system}, nil
}

func parseCode(identifier string) (int, error) {
	s := strings.TrimSpace(identifier)
	switch {
	case strings.HasPrefix(strings.ToLower(s), "epsg:"):
		s = s[len("epsg:"):]
	case strings.HasPrefix(strings.ToLower(s), "urn:ogc:def:crs:epsg:"):
		if i := strings.LastIndex(s, ":"); i >= 0 {
			s = s[i+1:]
		}
	}

	code, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || code <= 0 {
		return 0, &domain.BuildError{
			Kind:         domain.ErrInvalidProjection,
			FeatureIndex: -1,
			Detail:       strconv.Quote(identifier) + " is not a recognizable CRS identifier",
		}
	}
	return code, nil
}

// Transform returns a pure point transform from source to target.
func Transform(source, target CRS) orb.Projection {
	f := wgs84.Transform(source.system, target.system)
	return func(p orb.Point) orb.Point {
		x, y, _ := f(p[0], p[1], 0)
		return orb.Point{x, y}
	}
}

// Geometry reprojects a single geometry, recursing through multi-part
// geometries and collections.
func Geometry(source, target CRS, g orb.Geometry) orb.Geometry {
	return project.Geometry(g, Transform(source, target))
}

// FeatureCollection reprojects every feature geometry in place.
func FeatureCollection(source, target CRS, fc *geojson.FeatureCollection) {
	t := Transform(source, target)
	for _, f := range fc.Features {
		if f.Geometry != nil {
			f.Geometry = project.Geometry(f.Geometry, t)
		}
	}
}

// LooksLikeLatLng applies a heuristic bounding check across every coordinate
// of every feature: longitudes within [-180, 180] and latitudes within
// [-90, 90] suggest the dataset is already geographic. Empty collections
// report false, since there is no evidence either way.
func LooksLikeLatLng(fcs ...*geojson.FeatureCollection) bool {
	seen := false
	for _, fc := range fcs {
		if fc == nil {
			continue
		}
		for _, f := range fc.Features {
			if f.Geometry == nil {
				continue
			}
			seen = true
			b := f.Geometry.Bound()
			if b.Min[0] < -180 || b.Max[0] > 180 || b.Min[1] < -90 || b.Max[1] > 90 {
				return false
			}
		}
	}
	return seen
}
