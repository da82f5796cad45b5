// Package topology turns normalized, attribute-resolved GIS features into a
// node/link network graph: explicit node seeding, endpoint snapping within a
// coordinate tolerance, line-crossing resolution, connectivity analysis, and
// elevation backfill for synthesized junctions.
package topology

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/aquaforge/netbuilder/internal/domain"
)

// PointFeature is a resolved point input: an explicit node candidate.
type PointFeature struct {
	Element    domain.ElementKind
	Point      orb.Point
	Attributes domain.Attributes
	Index      int // position within the source layer, for error context
}

// Line is a resolved line input: a link candidate with its full polyline,
// endpoints included. LengthMapped records whether the pipe Length attribute
// came from source data; computed lengths are rederived per part after a
// split, while mapped lengths are scaled proportionally.
type Line struct {
	ID           string
	Element      domain.ElementKind
	Kind         domain.LinkKind
	Points       []orb.Point
	Attributes   domain.Attributes
	Index        int
	LengthMapped bool
}

// NewLine validates and wraps a line geometry. Fewer than two vertices is a
// degenerate geometry and aborts the build.
func NewLine(element domain.ElementKind, kind domain.LinkKind, pts []orb.Point, attrs domain.Attributes, index int) (Line, error) {
	if len(pts) < 2 {
		return Line{}, &domain.BuildError{
			Kind:         domain.ErrDegenerateGeometry,
			Element:      element,
			FeatureIndex: index,
			Detail:       "line has fewer than two vertices",
		}
	}
	return Line{Element: element, Kind: kind, Points: pts, Attributes: attrs, Index: index}, nil
}

// Length returns the planar length of the polyline.
func (l Line) Length() float64 {
	return planar.Length(orb.LineString(l.Points))
}

// linkIDPrefixes assigns each link kind its ID prefix. Prefixes are disjoint
// as full IDs (P1 vs PU1), keeping IDs unique across the whole model.
var linkIDPrefixes = map[domain.LinkKind]string{
	domain.LinkPipe:  "P",
	domain.LinkValve: "V",
	domain.LinkPump:  "PU",
}

// MintLinkIDs assigns deterministic IDs to lines in input order, one counter
// per link kind. Must run before SplitCrossings so split parts can derive
// suffixed IDs from a stable base.
func MintLinkIDs(lines []Line) {
	counters := make(map[domain.LinkKind]int, len(linkIDPrefixes))
	for i := range lines {
		counters[lines[i].Kind]++
		lines[i].ID = linkIDPrefixes[lines[i].Kind] + itoa(counters[lines[i].Kind])
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
