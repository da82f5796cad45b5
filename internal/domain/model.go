package domain

import "github.com/paulmach/orb"

// NodeKind distinguishes the three EPANET node roles.
type NodeKind string

const (
	NodeJunction  NodeKind = "junction"
	NodeTank      NodeKind = "tank"
	NodeReservoir NodeKind = "reservoir"
)

// LinkKind distinguishes the three EPANET link roles.
type LinkKind string

const (
	LinkPipe  LinkKind = "pipe"
	LinkValve LinkKind = "valve"
	LinkPump  LinkKind = "pump"
)

// Node is one vertex of the network graph in the model's working CRS.
// Implicit nodes are junctions synthesized during topology building (pipe
// endpoints and crossing points with no source feature behind them).
type Node struct {
	ID         string
	Kind       NodeKind
	Point      orb.Point
	Attributes Attributes
	Implicit   bool
}

// Link is one edge of the network graph. Vertices holds interior shape
// points only, excluding both endpoints; they carry geometry, not topology.
type Link struct {
	ID         string
	Kind       LinkKind
	StartNode  string
	EndNode    string
	Vertices   []orb.Point
	Attributes Attributes
}

// NetworkGraph is the aggregate produced by one build: nodes and links by ID
// plus insertion order, which downstream serialization preserves. The graph
// is owned by the pipeline for the duration of a single build and never
// mutated by callers.
type NetworkGraph struct {
	Nodes map[string]*Node
	Links map[string]*Link

	nodeOrder []string
	linkOrder []string
}

// NewNetworkGraph creates an empty graph.
func NewNetworkGraph() *NetworkGraph {
	return &NetworkGraph{
		Nodes: make(map[string]*Node),
		Links: make(map[string]*Link),
	}
}

// AddNode inserts a node, preserving insertion order.
func (g *NetworkGraph) AddNode(n *Node) {
	if _, exists := g.Nodes[n.ID]; !exists {
		g.nodeOrder = append(g.nodeOrder, n.ID)
	}
	g.Nodes[n.ID] = n
}

// AddLink inserts a link, preserving insertion order.
func (g *NetworkGraph) AddLink(l *Link) {
	if _, exists := g.Links[l.ID]; !exists {
		g.linkOrder = append(g.linkOrder, l.ID)
	}
	g.Links[l.ID] = l
}

// NodeOrder returns node IDs in insertion order.
func (g *NetworkGraph) NodeOrder() []string { return g.nodeOrder }

// LinkOrder returns link IDs in insertion order.
func (g *NetworkGraph) LinkOrder() []string { return g.linkOrder }

// NodesOfKind returns nodes of one kind in insertion order.
func (g *NetworkGraph) NodesOfKind(kind NodeKind) []*Node {
	var out []*Node
	for _, id := range g.nodeOrder {
		if n := g.Nodes[id]; n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// LinksOfKind returns links of one kind in insertion order.
func (g *NetworkGraph) LinksOfKind(kind LinkKind) []*Link {
	var out []*Link
	for _, id := range g.linkOrder {
		if l := g.Links[id]; l.Kind == kind {
			out = append(out, l)
		}
	}
	return out
}

// Degrees returns the number of incident links per node ID. Nodes with no
// incident links are present with a zero count.
func (g *NetworkGraph) Degrees() map[string]int {
	deg := make(map[string]int, len(g.Nodes))
	for _, id := range g.nodeOrder {
		deg[id] = 0
	}
	for _, id := range g.linkOrder {
		l := g.Links[id]
		deg[l.StartNode]++
		deg[l.EndNode]++
	}
	return deg
}
