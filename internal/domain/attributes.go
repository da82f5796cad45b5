package domain

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// AttributeMapping maps schema attribute names to source property names for
// one element kind. A missing or empty entry means "unmapped": required
// attributes fall back to their schema default, optional attributes are
// omitted entirely.
type AttributeMapping map[string]string

// Attributes is a fully resolved attribute set. Values are float64 for
// numeric attributes and string for textual ones (patterns, curves, statuses).
type Attributes map[string]any

// Number returns a numeric attribute value.
func (a Attributes) Number(name string) (float64, bool) {
	v, ok := a[name].(float64)
	return v, ok
}

// Text returns a textual attribute value.
func (a Attributes) Text(name string) (string, bool) {
	v, ok := a[name].(string)
	return v, ok
}

// Clone returns a shallow copy. Values are scalars, so shallow is enough.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// ResolveAttributes produces the resolved attribute set for one feature.
//
// For every required attribute: a mapped source property must be present and
// non-null, otherwise the build fails with MissingRequiredAttribute; an
// unmapped attribute takes the schema default under the active settings.
// Optional attributes are copied when mapped and present, and omitted
// otherwise; defaults apply to required attributes only.
func ResolveAttributes(f *geojson.Feature, kind ElementKind, mapping AttributeMapping, settings ModelSettings, index int) (Attributes, error) {
	schema := SchemaFor(kind)
	attrs := make(Attributes, len(schema.Attributes))

	for _, spec := range schema.Attributes {
		src := mapping[spec.Name]
		if src == "" {
			if spec.Required {
				attrs[spec.Name] = spec.Default(settings)
			}
			continue
		}

		raw, present := f.Properties[src]
		if !present || raw == nil {
			if spec.Required {
				return nil, &BuildError{
					Kind:         ErrMissingRequiredAttribute,
					Element:      kind,
					Attribute:    spec.Name,
					FeatureIndex: index,
					Detail:       "mapped property " + strconv.Quote(src) + " is absent",
				}
			}
			continue
		}

		value, ok := coerce(raw, spec.Text)
		if !ok {
			if spec.Required {
				return nil, &BuildError{
					Kind:         ErrMissingRequiredAttribute,
					Element:      kind,
					Attribute:    spec.Name,
					FeatureIndex: index,
					Detail:       "mapped property " + strconv.Quote(src) + " is not usable as a value",
				}
			}
			continue
		}
		attrs[spec.Name] = value
	}

	return attrs, nil
}

// coerce converts a raw GeoJSON property into the stored representation:
// float64 for numeric attributes, string for textual ones. GeoJSON numbers
// decode as float64, but GIS exports frequently carry numbers as strings,
// so string parsing is accepted for numeric attributes too.
func coerce(raw any, text bool) (any, bool) {
	if text {
		switch v := raw.(type) {
		case string:
			s := strings.TrimSpace(v)
			return s, s != ""
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		default:
			return nil, false
		}
	}

	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return nil, false
	}
}
