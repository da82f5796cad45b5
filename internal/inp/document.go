// Package inp reads and writes the EPANET INP plain-text model format:
// bracketed section headers, whitespace-separated data lines, and ';'
// comments. Parsing keeps every line verbatim so an existing document can
// round-trip byte-identically while only its geometry sections are replaced.
package inp

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/aquaforge/netbuilder/internal/domain"
)

// Section is one bracketed INP section. Header is the original header line
// and Lines the raw body lines, both kept verbatim for round-tripping.
type Section struct {
	Name   string
	Header string
	Lines  []string
}

// Document is a parsed INP file: any preamble lines before the first header
// followed by sections in file order.
type Document struct {
	Preamble []string
	Sections []Section
}

// Parse splits INP text into sections. Section headers are case-sensitive
// bracketed names; everything else is kept as-is, comments included.
func Parse(text string) *Document {
	doc := &Document{}
	lines := strings.Split(text, "\n")

	current := -1
	for _, line := range lines {
		if name, ok := sectionHeader(line); ok {
			doc.Sections = append(doc.Sections, Section{Name: name, Header: line})
			current = len(doc.Sections) - 1
			continue
		}
		if current < 0 {
			doc.Preamble = append(doc.Preamble, line)
			continue
		}
		doc.Sections[current].Lines = append(doc.Sections[current].Lines, line)
	}
	return doc
}

func sectionHeader(line string) (string, bool) {
	t := strings.TrimSpace(line)
	if len(t) >= 2 && t[0] == '[' && t[len(t)-1] == ']' {
		return t[1 : len(t)-1], true
	}
	return "", false
}

// Section returns the first section with the given name, or nil.
func (d *Document) Section(name string) *Section {
	for i := range d.Sections {
		if d.Sections[i].Name == name {
			return &d.Sections[i]
		}
	}
	return nil
}

// String reassembles the document exactly as parsed.
func (d *Document) String() string {
	var b strings.Builder
	lines := make([]string, 0, len(d.Preamble))
	lines = append(lines, d.Preamble...)
	for _, s := range d.Sections {
		lines = append(lines, s.Header)
		lines = append(lines, s.Lines...)
	}
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}

// dataFields splits a section line into whitespace-separated fields,
// returning nil for blank and comment lines.
func dataFields(line string) []string {
	t := strings.TrimSpace(line)
	if t == "" || strings.HasPrefix(t, ";") {
		return nil
	}
	return strings.Fields(t)
}

// Coordinates extracts the node coordinate mapping from the COORDINATES
// section.
func (d *Document) Coordinates() (map[string]orb.Point, error) {
	out := make(map[string]orb.Point)
	s := d.Section("COORDINATES")
	if s == nil {
		return out, nil
	}
	for _, line := range s.Lines {
		fields := dataFields(line)
		if fields == nil {
			continue
		}
		if len(fields) < 3 {
			return nil, &domain.BuildError{
				Kind:         domain.ErrSerializationFailure,
				FeatureIndex: -1,
				Detail:       "malformed COORDINATES line: " + strconv.Quote(line),
			}
		}
		x, errX := strconv.ParseFloat(fields[1], 64)
		y, errY := strconv.ParseFloat(fields[2], 64)
		if errX != nil || errY != nil {
			return nil, &domain.BuildError{
				Kind:         domain.ErrSerializationFailure,
				FeatureIndex: -1,
				Detail:       "malformed COORDINATES line: " + strconv.Quote(line),
			}
		}
		out[fields[0]] = orb.Point{x, y}
	}
	return out, nil
}

// Vertices extracts per-link interior vertex lists from the VERTICES
// section, in file order.
func (d *Document) Vertices() (map[string][]orb.Point, error) {
	out := make(map[string][]orb.Point)
	s := d.Section("VERTICES")
	if s == nil {
		return out, nil
	}
	for _, line := range s.Lines {
		fields := dataFields(line)
		if fields == nil {
			continue
		}
		if len(fields) < 3 {
			return nil, &domain.BuildError{
				Kind:         domain.ErrSerializationFailure,
				FeatureIndex: -1,
				Detail:       "malformed VERTICES line: " + strconv.Quote(line),
			}
		}
		x, errX := strconv.ParseFloat(fields[1], 64)
		y, errY := strconv.ParseFloat(fields[2], 64)
		if errX != nil || errY != nil {
			return nil, &domain.BuildError{
				Kind:         domain.ErrSerializationFailure,
				FeatureIndex: -1,
				Detail:       "malformed VERTICES line: " + strconv.Quote(line),
			}
		}
		out[fields[0]] = append(out[fields[0]], orb.Point{x, y})
	}
	return out, nil
}
