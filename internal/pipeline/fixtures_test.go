package pipeline_test

import (
	"io"
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/aquaforge/netbuilder/internal/domain"
	"github.com/aquaforge/netbuilder/internal/observability"
	"github.com/aquaforge/netbuilder/internal/pipeline"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBuilder() *pipeline.Builder {
	return pipeline.New(discardLogger(), observability.NewMetricsForTesting(), 0.01, 4)
}

func layer(geoms ...orb.Geometry) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, g := range geoms {
		fc.Append(geojson.NewFeature(g))
	}
	return fc
}

func layerWithProps(g orb.Geometry, props geojson.Properties) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(g)
	f.Properties = props
	fc.Append(f)
	return fc
}

// twoJunctionRequest is the smallest buildable network: two junctions joined
// by one pipe, all attributes defaulted.
func twoJunctionRequest() domain.BuildRequest {
	return domain.BuildRequest{
		Settings: domain.ModelSettings{
			FlowUnit:        domain.FlowGPM,
			HeadlossFormula: domain.HeadlossHazenWilliams,
		},
		AssignedData: map[domain.ElementKind]*geojson.FeatureCollection{
			domain.ElementJunctions: layer(orb.Point{0, 0}, orb.Point{10, 0}),
			domain.ElementPipes:     layer(orb.LineString{{0, 0}, {10, 0}}),
		},
	}
}

func collectEvents(events *[]pipeline.Event) pipeline.EventFunc {
	return func(e pipeline.Event) { *events = append(*events, e) }
}
