package topology

import (
	"fmt"

	"github.com/aquaforge/netbuilder/internal/domain"
)

// AnalyzeConnectivity walks the finished graph and reports non-fatal
// diagnostics: nodes with no incident link, links forming a component of
// their own, and a network split into multiple components. None of these
// block serialization; a syntactically valid INP is still useful for manual
// repair even when EPANET would refuse to simulate it.
func AnalyzeConnectivity(g *domain.NetworkGraph) []domain.Warning {
	var warnings []domain.Warning

	deg := g.Degrees()
	for _, id := range g.NodeOrder() {
		if deg[id] == 0 {
			warnings = append(warnings, domain.Warning{
				Kind:    domain.WarnIsolatedNode,
				Subject: id,
				Message: fmt.Sprintf("node %s has no connecting link", id),
			})
		}
	}

	uf := newUnionFind()
	for _, id := range g.NodeOrder() {
		uf.add(id)
	}
	for _, id := range g.LinkOrder() {
		l := g.Links[id]
		uf.union(l.StartNode, l.EndNode)
	}

	linksPerRoot := make(map[string]int)
	for _, id := range g.LinkOrder() {
		linksPerRoot[uf.find(g.Links[id].StartNode)]++
	}
	for _, id := range g.LinkOrder() {
		l := g.Links[id]
		if linksPerRoot[uf.find(l.StartNode)] == 1 && deg[l.StartNode] == 1 && deg[l.EndNode] == 1 {
			warnings = append(warnings, domain.Warning{
				Kind:    domain.WarnIsolatedLink,
				Subject: id,
				Message: fmt.Sprintf("link %s is not connected to the rest of the network", id),
			})
		}
	}

	// Component membership in node insertion order, components ordered by
	// their first member.
	var components [][]string
	memberOf := make(map[string]int)
	for _, id := range g.NodeOrder() {
		root := uf.find(id)
		ci, ok := memberOf[root]
		if !ok {
			ci = len(components)
			memberOf[root] = ci
			components = append(components, nil)
		}
		components[ci] = append(components[ci], id)
	}

	if len(components) > 1 {
		warnings = append(warnings, domain.Warning{
			Kind:       domain.WarnDisconnectedNetwork,
			Message:    fmt.Sprintf("network splits into %d disconnected components", len(components)),
			Components: components,
		})
	}

	return warnings
}

// unionFind is a path-compressing disjoint-set over node IDs.
type unionFind struct {
	parent map[string]string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string)}
}

func (u *unionFind) add(id string) {
	if _, ok := u.parent[id]; !ok {
		u.parent[id] = id
	}
}

func (u *unionFind) find(id string) string {
	u.add(id)
	root := id
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[id] != root {
		u.parent[id], id = root, u.parent[id]
	}
	return root
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}
