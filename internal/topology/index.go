package topology

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// pointIndex is a uniform grid hash over node coordinates supporting
// nearest-within-epsilon queries. Cell size equals the snapping tolerance,
// so any point within epsilon of a query lies in the 3x3 cell neighborhood.
type pointIndex struct {
	cell  float64
	cells map[[2]int][]indexEntry
}

type indexEntry struct {
	id string
	pt orb.Point
}

func newPointIndex(epsilon float64) *pointIndex {
	cell := epsilon
	if cell <= 0 {
		cell = 1e-9
	}
	return &pointIndex{cell: cell, cells: make(map[[2]int][]indexEntry)}
}

func (ix *pointIndex) key(p orb.Point) [2]int {
	return [2]int{int(math.Floor(p[0] / ix.cell)), int(math.Floor(p[1] / ix.cell))}
}

func (ix *pointIndex) insert(id string, p orb.Point) {
	k := ix.key(p)
	ix.cells[k] = append(ix.cells[k], indexEntry{id: id, pt: p})
}

// nearest returns the closest indexed point within epsilon of p. Ties go to
// the earliest inserted entry, keeping snap outcomes deterministic.
func (ix *pointIndex) nearest(p orb.Point, epsilon float64) (string, bool) {
	k := ix.key(p)
	bestID := ""
	bestDist := math.Inf(1)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for _, e := range ix.cells[[2]int{k[0] + dx, k[1] + dy}] {
				d := planar.Distance(e.pt, p)
				if d <= epsilon && d < bestDist {
					bestID, bestDist = e.id, d
				}
			}
		}
	}
	return bestID, bestID != ""
}
