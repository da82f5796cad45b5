package topology

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/aquaforge/netbuilder/internal/domain"
)

// cut marks a split position on a polyline: the segment it falls on, the
// parameter along that segment, and the intersection coordinate.
type cut struct {
	seg int
	t   float64
	pt  orb.Point
}

// SplitCrossings resolves geometric crossings between links. Whenever two
// polylines intersect at a point that is not already a shared endpoint, both
// are split there, so every flow connection ends up explicit: the split
// parts' coincident endpoints are later snapped onto a single junction by
// the graph builder. A line touching another's interior with its endpoint
// (a T-junction) splits only the crossed line.
//
// Collinear overlaps have no single intersection point and are left alone.
// Cut points within epsilon of each other collapse into one, avoiding
// near-duplicate junctions for near-miss intersections.
func SplitCrossings(lines []Line, epsilon float64) []Line {
	cuts := make([][]cut, len(lines))
	for i := 0; i < len(lines); i++ {
		for j := i + 1; j < len(lines); j++ {
			collectCuts(lines, cuts, i, j, epsilon)
		}
	}

	out := make([]Line, 0, len(lines))
	for i := range lines {
		out = append(out, split(lines[i], cuts[i], epsilon)...)
	}
	return out
}

func collectCuts(lines []Line, cuts [][]cut, i, j int, epsilon float64) {
	a, b := lines[i], lines[j]
	for si := 0; si+1 < len(a.Points); si++ {
		for sj := 0; sj+1 < len(b.Points); sj++ {
			p, t, u, ok := segmentIntersection(a.Points[si], a.Points[si+1], b.Points[sj], b.Points[sj+1])
			if !ok {
				continue
			}
			nearEndA := nearLineEnd(a, p, epsilon)
			nearEndB := nearLineEnd(b, p, epsilon)
			if nearEndA && nearEndB {
				// Shared endpoint; endpoint snapping already joins these.
				continue
			}
			if !nearEndA {
				cuts[i] = append(cuts[i], cut{seg: si, t: t, pt: p})
			}
			if !nearEndB {
				cuts[j] = append(cuts[j], cut{seg: sj, t: u, pt: p})
			}
		}
	}
}

func nearLineEnd(l Line, p orb.Point, epsilon float64) bool {
	return planar.Distance(l.Points[0], p) <= epsilon ||
		planar.Distance(l.Points[len(l.Points)-1], p) <= epsilon
}

// split cuts a polyline at the collected positions and derives part lines.
// A mapped pipe Length is distributed over the parts proportionally to their
// geometric share; computed lengths are rederived by the graph builder.
func split(ln Line, cs []cut, epsilon float64) []Line {
	if len(cs) == 0 {
		return []Line{ln}
	}

	sort.Slice(cs, func(i, j int) bool {
		if cs[i].seg != cs[j].seg {
			return cs[i].seg < cs[j].seg
		}
		return cs[i].t < cs[j].t
	})

	kept := cs[:0]
	for _, c := range cs {
		if len(kept) > 0 && planar.Distance(kept[len(kept)-1].pt, c.pt) <= epsilon {
			continue
		}
		kept = append(kept, c)
	}

	var parts [][]orb.Point
	current := []orb.Point{ln.Points[0]}
	ci := 0
	for seg := 0; seg+1 < len(ln.Points); seg++ {
		for ci < len(kept) && kept[ci].seg == seg {
			appendPoint(&current, kept[ci].pt)
			if len(current) >= 2 {
				parts = append(parts, current)
			}
			current = []orb.Point{kept[ci].pt}
			ci++
		}
		appendPoint(&current, ln.Points[seg+1])
	}
	if len(current) >= 2 {
		parts = append(parts, current)
	}

	if len(parts) <= 1 {
		return []Line{ln}
	}

	total := ln.Length()
	mappedLength, hasMapped := ln.Attributes.Number("Length")

	out := make([]Line, len(parts))
	for idx, pts := range parts {
		attrs := ln.Attributes.Clone()
		if ln.Kind == domain.LinkPipe && ln.LengthMapped && hasMapped && total > 0 {
			partLen := planar.Length(orb.LineString(pts))
			attrs["Length"] = mappedLength * partLen / total
		}
		out[idx] = Line{
			ID:           ln.ID + "_" + itoa(idx+1),
			Element:      ln.Element,
			Kind:         ln.Kind,
			Points:       pts,
			Attributes:   attrs,
			Index:        ln.Index,
			LengthMapped: ln.LengthMapped,
		}
	}
	return out
}

// appendPoint adds p unless it duplicates the current last point exactly,
// which happens when a cut lands on an interior vertex.
func appendPoint(pts *[]orb.Point, p orb.Point) {
	last := (*pts)[len(*pts)-1]
	if math.Abs(last[0]-p[0]) < 1e-12 && math.Abs(last[1]-p[1]) < 1e-12 {
		return
	}
	*pts = append(*pts, p)
}

// segmentIntersection computes the proper intersection of segments a1-a2 and
// b1-b2. Returns the point and the parameters along each segment. Parallel
// and collinear pairs report no intersection.
func segmentIntersection(a1, a2, b1, b2 orb.Point) (orb.Point, float64, float64, bool) {
	rx, ry := a2[0]-a1[0], a2[1]-a1[1]
	sx, sy := b2[0]-b1[0], b2[1]-b1[1]

	denom := rx*sy - ry*sx
	if math.Abs(denom) < 1e-12 {
		return orb.Point{}, 0, 0, false
	}

	qpx, qpy := b1[0]-a1[0], b1[1]-a1[1]
	t := (qpx*sy - qpy*sx) / denom
	u := (qpx*ry - qpy*rx) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return orb.Point{}, 0, 0, false
	}

	return orb.Point{a1[0] + t*rx, a1[1] + t*ry}, t, u, true
}
