package topology

import (
	"log/slog"

	"github.com/paulmach/orb"

	"github.com/aquaforge/netbuilder/internal/domain"
)

// nodeIDPrefixes maps element kinds that seed explicit nodes to their ID
// prefix and node kind. Point-geometry valves and pumps become junctions:
// they mark a device location on a pipe run rather than storage or a source.
var nodeSeeds = map[domain.ElementKind]struct {
	prefix string
	kind   domain.NodeKind
}{
	domain.ElementJunctions:  {"J", domain.NodeJunction},
	domain.ElementTanks:      {"T", domain.NodeTank},
	domain.ElementReservoirs: {"R", domain.NodeReservoir},
	domain.ElementValves:     {"J", domain.NodeJunction},
	domain.ElementPumps:      {"J", domain.NodeJunction},
}

// Builder constructs a network graph from resolved point and line inputs.
// One Builder serves one build; counters and the spatial index are per-build
// state.
type Builder struct {
	epsilon  float64
	logger   *slog.Logger
	index    *pointIndex
	graph    *domain.NetworkGraph
	counters map[string]int
}

// NewBuilder creates a Builder with the given snapping tolerance.
func NewBuilder(epsilon float64, logger *slog.Logger) *Builder {
	return &Builder{
		epsilon:  epsilon,
		logger:   logger,
		index:    newPointIndex(epsilon),
		graph:    domain.NewNetworkGraph(),
		counters: make(map[string]int),
	}
}

// Build seeds explicit nodes from point features, then resolves every line's
// endpoints against the spatial index: an explicit node within epsilon wins,
// otherwise an implicit junction is synthesized at the endpoint and inserted
// into the index so later lines snap to it too. Inputs must arrive in stable
// source order; IDs and snap outcomes are deterministic given that order.
//
// A line whose endpoints collapse onto the same node is degenerate: either a
// self-loop or shorter than the snapping tolerance.
func (b *Builder) Build(points []PointFeature, lines []Line) (*domain.NetworkGraph, error) {
	for _, pf := range points {
		seed, ok := nodeSeeds[pf.Element]
		if !ok {
			return nil, &domain.BuildError{
				Kind:         domain.ErrInvalidGeometryForElement,
				Element:      pf.Element,
				FeatureIndex: pf.Index,
				Detail:       "element kind does not admit point geometry",
			}
		}
		id := b.mint(seed.prefix)
		b.addNode(&domain.Node{
			ID:         id,
			Kind:       seed.kind,
			Point:      pf.Point,
			Attributes: pf.Attributes,
		})
	}

	for _, ln := range lines {
		if err := b.addLine(ln); err != nil {
			return nil, err
		}
	}

	return b.graph, nil
}

func (b *Builder) addLine(ln Line) error {
	start := b.resolveEndpoint(ln.Points[0])
	end := b.resolveEndpoint(ln.Points[len(ln.Points)-1])

	if start == end {
		return &domain.BuildError{
			Kind:         domain.ErrDegenerateGeometry,
			Element:      ln.Element,
			FeatureIndex: ln.Index,
			Detail:       "line endpoints resolve to the same node " + start + " (self-loop or shorter than the snapping tolerance)",
		}
	}

	attrs := ln.Attributes
	if attrs == nil {
		attrs = domain.Attributes{}
	}
	if ln.Kind == domain.LinkPipe {
		if _, ok := attrs.Number("Length"); !ok {
			attrs["Length"] = ln.Length()
		}
	}

	vertices := make([]orb.Point, len(ln.Points)-2)
	copy(vertices, ln.Points[1:len(ln.Points)-1])

	b.graph.AddLink(&domain.Link{
		ID:         ln.ID,
		Kind:       ln.Kind,
		StartNode:  start,
		EndNode:    end,
		Vertices:   vertices,
		Attributes: attrs,
	})
	return nil
}

// resolveEndpoint binds a line endpoint to the nearest node within epsilon,
// synthesizing an implicit junction when none exists.
func (b *Builder) resolveEndpoint(p orb.Point) string {
	if id, ok := b.index.nearest(p, b.epsilon); ok {
		return id
	}
	id := b.mint("J")
	b.addNode(&domain.Node{
		ID:         id,
		Kind:       domain.NodeJunction,
		Point:      p,
		Attributes: domain.Attributes{},
		Implicit:   true,
	})
	b.logger.Debug("synthesized junction", "id", id, "x", p[0], "y", p[1])
	return id
}

func (b *Builder) addNode(n *domain.Node) {
	b.graph.AddNode(n)
	b.index.insert(n.ID, n.Point)
}

func (b *Builder) mint(prefix string) string {
	b.counters[prefix]++
	return prefix + itoa(b.counters[prefix])
}
