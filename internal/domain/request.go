package domain

import "github.com/paulmach/orb/geojson"

// ProjectionChoice describes how the source layers relate to the model's
// working CRS. Identifiers are EPSG-style ("EPSG:3857", "3857", or the OGC
// URN form). DataIsLatLng short-circuits reprojection when the heuristic
// bounding check already classified the dataset as geographic.
type ProjectionChoice struct {
	OriginalProjection string `json:"originalProjection" yaml:"originalProjection"`
	SelectedProjection string `json:"selectedProjection" yaml:"selectedProjection"`
	NeedsReprojection  bool   `json:"needsReprojection" yaml:"needsReprojection"`
	DataIsLatLng       bool   `json:"dataIsLatLng" yaml:"dataIsLatLng"`
}

// BuildRequest is the single configuration a caller submits per build.
type BuildRequest struct {
	Settings         ModelSettings                              `json:"settings" validate:"required"`
	AssignedData     map[ElementKind]*geojson.FeatureCollection `json:"assignedData" validate:"required,min=1"`
	AttributeMapping map[ElementKind]AttributeMapping           `json:"attributeMapping"`
	Projection       ProjectionChoice                           `json:"projection"`

	// BaseINP, when non-empty, is an existing INP document whose COORDINATES
	// and VERTICES sections are replaced while everything else round-trips
	// verbatim.
	BaseINP string `json:"baseInp,omitempty"`

	// SnapTolerance overrides the configured endpoint-snapping epsilon.
	// Zero means "use the service default".
	SnapTolerance float64 `json:"snapTolerance,omitempty" validate:"gte=0"`
}

// MappingFor returns the attribute mapping for a kind, never nil.
func (r *BuildRequest) MappingFor(kind ElementKind) AttributeMapping {
	if m, ok := r.AttributeMapping[kind]; ok && m != nil {
		return m
	}
	return AttributeMapping{}
}

// BuildResult is the successful terminal outcome of one build.
type BuildResult struct {
	INPFile   string    `json:"inpFile"`
	Warnings  []Warning `json:"warnings,omitempty"`
	NodeCount int       `json:"nodeCount"`
	LinkCount int       `json:"linkCount"`
}
