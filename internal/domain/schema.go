package domain

// ElementKind names one of the six GIS layers a build consumes.
type ElementKind string

const (
	ElementJunctions  ElementKind = "junctions"
	ElementTanks      ElementKind = "tanks"
	ElementReservoirs ElementKind = "reservoirs"
	ElementPipes      ElementKind = "pipes"
	ElementValves     ElementKind = "valves"
	ElementPumps      ElementKind = "pumps"
)

// ElementKinds returns all kinds in processing order: node layers first, then
// link layers. Topology building depends on this order for deterministic IDs.
func ElementKinds() []ElementKind {
	return []ElementKind{
		ElementJunctions, ElementTanks, ElementReservoirs,
		ElementPipes, ElementValves, ElementPumps,
	}
}

// DefaultFunc produces a schema default under the active model settings.
// Defaults may depend on the unit system or the headloss formula.
type DefaultFunc func(ModelSettings) any

// AttributeSpec defines one attribute of an element schema.
type AttributeSpec struct {
	Name     string
	Unit     UnitClass
	Required bool
	Text     bool        // value is textual (pattern / curve / status names)
	Default  DefaultFunc // nil for optional attributes, which are never defaulted
}

// ElementSchema is the static definition of one element kind: permitted
// geometry types and the ordered attribute list. Attribute order matches the
// EPANET section column order so the serializer can emit fields positionally.
type ElementSchema struct {
	Kind       ElementKind
	Geometries []string // GeoJSON type names admitted for this kind
	Attributes []AttributeSpec
}

// AllowsGeometry reports whether the GeoJSON geometry type is valid for this
// element kind. Multi-part types are listed where their exploded single-part
// form is valid.
func (s ElementSchema) AllowsGeometry(geoJSONType string) bool {
	for _, g := range s.Geometries {
		if g == geoJSONType {
			return true
		}
	}
	return false
}

// Required returns the required attribute specs in schema order.
func (s ElementSchema) Required() []AttributeSpec {
	out := make([]AttributeSpec, 0, len(s.Attributes))
	for _, a := range s.Attributes {
		if a.Required {
			out = append(out, a)
		}
	}
	return out
}

// Attribute looks up a spec by name.
func (s ElementSchema) Attribute(name string) (AttributeSpec, bool) {
	for _, a := range s.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return AttributeSpec{}, false
}

func constant(v any) DefaultFunc {
	return func(ModelSettings) any { return v }
}

func bySystem(us, metric float64) DefaultFunc {
	return func(s ModelSettings) any {
		if s.FlowUnit.IsUS() {
			return us
		}
		return metric
	}
}

// schemas holds the static element definitions, keyed by kind.
//
// Attribute names follow EPANET's documentation vocabulary. Elevation-like
// attributes (Elevation, Head, InitLevel, MinLevel, MaxLevel) are required so
// the elevation assigner only ever has to fill in implicit junctions.
var schemas = map[ElementKind]ElementSchema{
	ElementJunctions: {
		Kind:       ElementJunctions,
		Geometries: []string{"Point", "MultiPoint"},
		Attributes: []AttributeSpec{
			{Name: "Elevation", Unit: UnitElevation, Required: true, Default: constant(0.0)},
			{Name: "Demand", Unit: UnitFlow},
			{Name: "Pattern", Text: true},
		},
	},
	ElementTanks: {
		Kind:       ElementTanks,
		Geometries: []string{"Point", "MultiPoint"},
		Attributes: []AttributeSpec{
			{Name: "Elevation", Unit: UnitElevation, Required: true, Default: constant(0.0)},
			{Name: "InitLevel", Unit: UnitElevation, Required: true, Default: constant(10.0)},
			{Name: "MinLevel", Unit: UnitElevation, Required: true, Default: constant(0.0)},
			{Name: "MaxLevel", Unit: UnitElevation, Required: true, Default: constant(20.0)},
			{Name: "Diameter", Unit: UnitDiameter, Required: true, Default: bySystem(50, 15)},
			{Name: "MinVol", Unit: UnitVolume},
			{Name: "VolCurve", Text: true},
		},
	},
	ElementReservoirs: {
		Kind:       ElementReservoirs,
		Geometries: []string{"Point", "MultiPoint"},
		Attributes: []AttributeSpec{
			{Name: "Head", Unit: UnitElevation, Required: true, Default: constant(0.0)},
			{Name: "Pattern", Text: true},
		},
	},
	ElementPipes: {
		Kind:       ElementPipes,
		Geometries: []string{"LineString", "MultiLineString"},
		Attributes: []AttributeSpec{
			{Name: "Diameter", Unit: UnitDiameter, Required: true, Default: bySystem(12, 300)},
			{Name: "Roughness", Unit: UnitRoughness, Required: true,
				Default: func(s ModelSettings) any { return s.DefaultRoughness() }},
			// Length is computed from geometry when unmapped, so it is
			// optional here despite being a required INP column.
			{Name: "Length", Unit: UnitLength},
			{Name: "MinorLoss"},
			{Name: "Status", Text: true},
		},
	},
	ElementValves: {
		Kind:       ElementValves,
		Geometries: []string{"Point", "MultiPoint", "LineString", "MultiLineString"},
		Attributes: []AttributeSpec{
			{Name: "Diameter", Unit: UnitDiameter, Required: true, Default: bySystem(12, 300)},
			{Name: "Type", Text: true, Required: true, Default: constant("PRV")},
			{Name: "Setting", Required: true, Default: constant(0.0)},
			{Name: "MinorLoss"},
		},
	},
	ElementPumps: {
		Kind:       ElementPumps,
		Geometries: []string{"Point", "MultiPoint", "LineString", "MultiLineString"},
		Attributes: []AttributeSpec{
			{Name: "Power", Unit: UnitPower, Required: true, Default: constant(50.0)},
			{Name: "Pattern", Text: true},
			{Name: "Speed"},
		},
	},
}

// SchemaFor returns the static schema for an element kind.
// Unknown kinds return a zero schema that admits nothing.
func SchemaFor(kind ElementKind) ElementSchema {
	return schemas[kind]
}
