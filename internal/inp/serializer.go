package inp

import (
	"strconv"
	"strings"
	"time"

	"github.com/aquaforge/netbuilder/internal/domain"
)

// DefaultPrecision is the decimal precision for numeric fields.
const DefaultPrecision = 4

// Serializer renders a network graph into INP text. It trusts the graph's
// invariants: IDs are written exactly as stored and never re-validated for
// uniqueness, which is the topology builder's contract to uphold.
type Serializer struct {
	precision int
}

// NewSerializer creates a Serializer. Non-positive precision falls back to
// DefaultPrecision.
func NewSerializer(precision int) *Serializer {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	return &Serializer{precision: precision}
}

// Serialize renders the graph and settings into a complete INP document.
// When base is non-empty it is treated as an existing document: only its
// COORDINATES and VERTICES sections are replaced (and END moved last); every
// other section round-trips byte-identically.
func (s *Serializer) Serialize(g *domain.NetworkGraph, settings domain.ModelSettings, base string) (string, error) {
	if err := s.checkReferences(g); err != nil {
		return "", err
	}
	if base != "" {
		return s.updateBase(g, base), nil
	}

	var b strings.Builder

	writeSection(&b, "TITLE", nil, []string{
		"Generated by netbuilder on " + domain.Now().UTC().Format(time.RFC3339),
	})
	writeSection(&b, "OPTIONS", nil, []string{
		" UNITS\t" + string(settings.FlowUnit),
		" HEADLOSS\t" + string(settings.HeadlossFormula),
	})

	writeSection(&b, "JUNCTIONS", []string{";ID", "Elevation", "Demand", "Pattern"},
		s.nodeLines(g, domain.NodeJunction, domain.ElementJunctions))
	writeSection(&b, "RESERVOIRS", []string{";ID", "Head", "Pattern"},
		s.nodeLines(g, domain.NodeReservoir, domain.ElementReservoirs))
	writeSection(&b, "TANKS", []string{";ID", "Elevation", "InitLevel", "MinLevel", "MaxLevel", "Diameter", "MinVol", "VolCurve"},
		s.nodeLines(g, domain.NodeTank, domain.ElementTanks))

	writeSection(&b, "PIPES", []string{";ID", "Node1", "Node2", "Length", "Diameter", "Roughness", "MinorLoss", "Status"},
		s.pipeLines(g))
	writeSection(&b, "PUMPS", []string{";ID", "Node1", "Node2", "Parameters"},
		s.pumpLines(g))
	writeSection(&b, "VALVES", []string{";ID", "Node1", "Node2", "Diameter", "Type", "Setting", "MinorLoss"},
		s.valveLines(g))

	writeSection(&b, "COORDINATES", []string{";Node", "X-Coord", "Y-Coord"}, s.coordinateLines(g))
	writeSection(&b, "VERTICES", []string{";Link", "X-Coord", "Y-Coord"}, s.vertexLines(g))

	b.WriteString("[END]\n")
	return b.String(), nil
}

// checkReferences verifies every link's endpoints exist in the graph.
func (s *Serializer) checkReferences(g *domain.NetworkGraph) error {
	for _, id := range g.LinkOrder() {
		l := g.Links[id]
		for _, nodeID := range []string{l.StartNode, l.EndNode} {
			if _, ok := g.Nodes[nodeID]; !ok {
				return &domain.BuildError{
					Kind:         domain.ErrSerializationFailure,
					FeatureIndex: -1,
					Detail:       "link " + l.ID + " references missing node " + nodeID,
				}
			}
		}
	}
	return nil
}

// updateBase rewrites an existing document with fresh geometry sections.
func (s *Serializer) updateBase(g *domain.NetworkGraph, base string) string {
	doc := Parse(base)

	kept := doc.Sections[:0]
	for _, sec := range doc.Sections {
		switch sec.Name {
		case "COORDINATES", "VERTICES", "END":
			continue
		}
		kept = append(kept, sec)
	}
	doc.Sections = kept

	doc.Sections = append(doc.Sections,
		Section{Name: "COORDINATES", Header: "[COORDINATES]",
			Lines: append(headerComment(";Node", "X-Coord", "Y-Coord"), append(s.coordinateLines(g), "")...)},
		Section{Name: "VERTICES", Header: "[VERTICES]",
			Lines: append(headerComment(";Link", "X-Coord", "Y-Coord"), append(s.vertexLines(g), "")...)},
		Section{Name: "END", Header: "[END]"},
	)
	return doc.String()
}

func headerComment(cols ...string) []string {
	return []string{strings.Join(cols, "\t")}
}

func writeSection(b *strings.Builder, name string, cols []string, lines []string) {
	b.WriteString("[" + name + "]\n")
	if cols != nil {
		b.WriteString(strings.Join(cols, "\t") + "\n")
	}
	for _, l := range lines {
		b.WriteString(l + "\n")
	}
	b.WriteString("\n")
}

// nodeLines renders one data line per node of the given kind, emitting the
// schema's attribute columns positionally. Absent trailing optionals are
// dropped; an absent optional followed by a present one renders as 0 to keep
// columns positional.
func (s *Serializer) nodeLines(g *domain.NetworkGraph, kind domain.NodeKind, element domain.ElementKind) []string {
	schema := domain.SchemaFor(element)
	var out []string
	for _, n := range g.NodesOfKind(kind) {
		fields := []string{n.ID}
		fields = append(fields, s.attributeFields(n.Attributes, schema.Attributes)...)
		out = append(out, strings.Join(fields, "\t"))
	}
	return out
}

func (s *Serializer) pipeLines(g *domain.NetworkGraph) []string {
	schema := domain.SchemaFor(domain.ElementPipes)
	var out []string
	for _, l := range g.LinksOfKind(domain.LinkPipe) {
		fields := []string{l.ID, l.StartNode, l.EndNode}
		// Length leads the numeric columns in the PIPES section even though
		// the schema lists sizing attributes first.
		order := []string{"Length", "Diameter", "Roughness", "MinorLoss", "Status"}
		specs := make([]domain.AttributeSpec, 0, len(order))
		for _, name := range order {
			if spec, ok := schema.Attribute(name); ok {
				specs = append(specs, spec)
			}
		}
		fields = append(fields, s.attributeFields(l.Attributes, specs)...)
		out = append(out, strings.Join(fields, "\t"))
	}
	return out
}

func (s *Serializer) pumpLines(g *domain.NetworkGraph) []string {
	var out []string
	for _, l := range g.LinksOfKind(domain.LinkPump) {
		fields := []string{l.ID, l.StartNode, l.EndNode}
		if power, ok := l.Attributes.Number("Power"); ok {
			fields = append(fields, "POWER", s.num(power))
		}
		if speed, ok := l.Attributes.Number("Speed"); ok {
			fields = append(fields, "SPEED", s.num(speed))
		}
		if pattern, ok := l.Attributes.Text("Pattern"); ok {
			fields = append(fields, "PATTERN", pattern)
		}
		out = append(out, strings.Join(fields, "\t"))
	}
	return out
}

func (s *Serializer) valveLines(g *domain.NetworkGraph) []string {
	schema := domain.SchemaFor(domain.ElementValves)
	var out []string
	for _, l := range g.LinksOfKind(domain.LinkValve) {
		fields := []string{l.ID, l.StartNode, l.EndNode}
		fields = append(fields, s.attributeFields(l.Attributes, schema.Attributes)...)
		out = append(out, strings.Join(fields, "\t"))
	}
	return out
}

func (s *Serializer) coordinateLines(g *domain.NetworkGraph) []string {
	var out []string
	for _, id := range g.NodeOrder() {
		n := g.Nodes[id]
		out = append(out, strings.Join([]string{n.ID, s.num(n.Point[0]), s.num(n.Point[1])}, "\t"))
	}
	return out
}

func (s *Serializer) vertexLines(g *domain.NetworkGraph) []string {
	var out []string
	for _, id := range g.LinkOrder() {
		l := g.Links[id]
		for _, v := range l.Vertices {
			out = append(out, strings.Join([]string{l.ID, s.num(v[0]), s.num(v[1])}, "\t"))
		}
	}
	return out
}

// attributeFields renders attribute values in spec order. A placeholder
// marks absent optionals; trailing placeholders are trimmed and interior
// ones become 0 so remaining columns stay aligned.
func (s *Serializer) attributeFields(attrs domain.Attributes, specs []domain.AttributeSpec) []string {
	const placeholder = "\x00"
	fields := make([]string, 0, len(specs))
	for _, spec := range specs {
		v, ok := attrs[spec.Name]
		if !ok {
			fields = append(fields, placeholder)
			continue
		}
		switch val := v.(type) {
		case float64:
			fields = append(fields, s.num(val))
		case string:
			fields = append(fields, val)
		default:
			fields = append(fields, placeholder)
		}
	}
	for len(fields) > 0 && fields[len(fields)-1] == placeholder {
		fields = fields[:len(fields)-1]
	}
	for i, f := range fields {
		if f == placeholder {
			fields[i] = "0"
		}
	}
	return fields
}

func (s *Serializer) num(v float64) string {
	return strconv.FormatFloat(v, 'f', s.precision, 64)
}
