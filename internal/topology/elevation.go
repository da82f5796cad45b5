package topology

import "github.com/aquaforge/netbuilder/internal/domain"

// AssignElevations backfills the Elevation attribute on junction nodes that
// lack one. Explicit nodes already passed attribute resolution, which
// guarantees every elevation-like required attribute; this stage exists for
// implicit junctions synthesized during topology building, which have no
// source feature at all. Returns the number of nodes updated.
func AssignElevations(g *domain.NetworkGraph, settings domain.ModelSettings) int {
	spec, ok := domain.SchemaFor(domain.ElementJunctions).Attribute("Elevation")
	if !ok {
		return 0
	}

	assigned := 0
	for _, id := range g.NodeOrder() {
		n := g.Nodes[id]
		if n.Kind != domain.NodeJunction {
			continue
		}
		if _, has := n.Attributes.Number("Elevation"); has {
			continue
		}
		if n.Attributes == nil {
			n.Attributes = domain.Attributes{}
		}
		n.Attributes["Elevation"] = spec.Default(settings)
		assigned++
	}
	return assigned
}
