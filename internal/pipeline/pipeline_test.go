package pipeline_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquaforge/netbuilder/internal/domain"
	"github.com/aquaforge/netbuilder/internal/pipeline"
)

func TestBuildHappyPath(t *testing.T) {
	var events []pipeline.Event
	res, err := testBuilder().Build(context.Background(), twoJunctionRequest(), collectEvents(&events))

	require.NoError(t, err)
	assert.Equal(t, 2, res.NodeCount)
	assert.Equal(t, 1, res.LinkCount)
	assert.Empty(t, res.Warnings)

	assert.Contains(t, res.INPFile, "[JUNCTIONS]")
	assert.Contains(t, res.INPFile, "[PIPES]")
	assert.Contains(t, res.INPFile, " UNITS\tGPM")
	assert.True(t, strings.HasSuffix(res.INPFile, "[END]\n"))

	// One progress event per stage in order, then the terminal complete.
	stages := pipeline.Stages()
	require.Len(t, events, len(stages)+1)
	for i, stage := range stages {
		assert.Equal(t, "progress", events[i].Type)
		assert.Equal(t, stage, events[i].Task)
	}
	terminal := events[len(events)-1]
	assert.Equal(t, "complete", terminal.Type)
	assert.Equal(t, res.INPFile, terminal.INPFile)
}

func TestBuildNilEmit(t *testing.T) {
	_, err := testBuilder().Build(context.Background(), twoJunctionRequest(), nil)
	assert.NoError(t, err)
}

func TestBuildValidationFailures(t *testing.T) {
	t.Run("no layers assigned", func(t *testing.T) {
		req := twoJunctionRequest()
		req.AssignedData = nil

		var events []pipeline.Event
		_, err := testBuilder().Build(context.Background(), req, collectEvents(&events))

		require.Error(t, err)
		terminal := events[len(events)-1]
		assert.Equal(t, "error", terminal.Type)
		assert.NotEmpty(t, terminal.Message)
	})

	t.Run("unknown flow unit", func(t *testing.T) {
		req := twoJunctionRequest()
		req.Settings.FlowUnit = "BUCKETS"

		_, err := testBuilder().Build(context.Background(), req, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid build request")
	})

	t.Run("negative snap tolerance", func(t *testing.T) {
		req := twoJunctionRequest()
		req.SnapTolerance = -1

		_, err := testBuilder().Build(context.Background(), req, nil)
		require.Error(t, err)
	})

	t.Run("line geometry in a node layer", func(t *testing.T) {
		req := twoJunctionRequest()
		req.AssignedData[domain.ElementJunctions] = layer(orb.LineString{{0, 0}, {1, 0}})

		_, err := testBuilder().Build(context.Background(), req, nil)

		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.ErrInvalidGeometryForElement))

		var be *domain.BuildError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, string(pipeline.StageValidating), be.Stage)
		assert.Equal(t, domain.ElementJunctions, be.Element)
	})

	t.Run("unresolvable source projection", func(t *testing.T) {
		req := twoJunctionRequest()
		req.Projection = domain.ProjectionChoice{
			OriginalProjection: "EPSG:999999",
			NeedsReprojection:  true,
		}

		_, err := testBuilder().Build(context.Background(), req, nil)

		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.ErrInvalidProjection))
	})
}

func TestBuildMissingRequiredAttribute(t *testing.T) {
	req := twoJunctionRequest()
	req.AttributeMapping = map[domain.ElementKind]domain.AttributeMapping{
		domain.ElementPipes: {"Diameter": "DIA"},
	}

	var events []pipeline.Event
	_, err := testBuilder().Build(context.Background(), req, collectEvents(&events))

	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrMissingRequiredAttribute))

	var be *domain.BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, string(pipeline.StageConvertingGeometry), be.Stage)
	assert.Equal(t, domain.ElementPipes, be.Element)
	assert.Equal(t, "Diameter", be.Attribute)

	assert.Equal(t, "error", events[len(events)-1].Type)
}

func TestBuildMappedAttributesFlowThrough(t *testing.T) {
	req := domain.BuildRequest{
		Settings: domain.ModelSettings{
			FlowUnit:        domain.FlowGPM,
			HeadlossFormula: domain.HeadlossHazenWilliams,
		},
		AssignedData: map[domain.ElementKind]*geojson.FeatureCollection{
			domain.ElementJunctions: layerWithProps(orb.Point{0, 0}, geojson.Properties{"ELEV": 250.5}),
			domain.ElementPipes:     layer(orb.LineString{{0, 0}, {10, 0}}),
		},
		AttributeMapping: map[domain.ElementKind]domain.AttributeMapping{
			domain.ElementJunctions: {"Elevation": "ELEV"},
		},
	}

	res, err := testBuilder().Build(context.Background(), req, nil)

	require.NoError(t, err)
	assert.Contains(t, res.INPFile, "250.5000")
}

func TestBuildReprojectsToLonLat(t *testing.T) {
	// One degree of longitude at the equator in web mercator meters.
	req := domain.BuildRequest{
		Settings: domain.ModelSettings{
			FlowUnit:        domain.FlowGPM,
			HeadlossFormula: domain.HeadlossHazenWilliams,
		},
		AssignedData: map[domain.ElementKind]*geojson.FeatureCollection{
			domain.ElementJunctions: layer(orb.Point{111319.4908, 0}, orb.Point{222638.9816, 0}),
			domain.ElementPipes:     layer(orb.LineString{{111319.4908, 0}, {222638.9816, 0}}),
		},
		Projection: domain.ProjectionChoice{
			OriginalProjection: "EPSG:3857",
			NeedsReprojection:  true,
		},
	}

	res, err := testBuilder().Build(context.Background(), req, nil)

	require.NoError(t, err)
	assert.Contains(t, res.INPFile, "J1\t1.0000\t0.0000")
	assert.Contains(t, res.INPFile, "J2\t2.0000\t0.0000")
}

func TestBuildReprojectionSkippedForLatLngData(t *testing.T) {
	req := twoJunctionRequest()
	req.Projection = domain.ProjectionChoice{
		OriginalProjection: "EPSG:3857",
		NeedsReprojection:  true,
		DataIsLatLng:       true,
	}

	res, err := testBuilder().Build(context.Background(), req, nil)

	require.NoError(t, err)
	assert.Contains(t, res.INPFile, "J1\t0.0000\t0.0000")
	assert.Contains(t, res.INPFile, "J2\t10.0000\t0.0000")
}

func TestBuildSelectedProjectionWinsOverOriginal(t *testing.T) {
	req := domain.BuildRequest{
		Settings: domain.ModelSettings{
			FlowUnit:        domain.FlowGPM,
			HeadlossFormula: domain.HeadlossHazenWilliams,
		},
		AssignedData: map[domain.ElementKind]*geojson.FeatureCollection{
			domain.ElementJunctions: layer(orb.Point{111319.4908, 0}, orb.Point{222638.9816, 0}),
			domain.ElementPipes:     layer(orb.LineString{{111319.4908, 0}, {222638.9816, 0}}),
		},
		Projection: domain.ProjectionChoice{
			OriginalProjection: "EPSG:999999",
			SelectedProjection: "EPSG:3857",
			NeedsReprojection:  true,
		},
	}

	res, err := testBuilder().Build(context.Background(), req, nil)

	require.NoError(t, err)
	assert.Contains(t, res.INPFile, "J1\t1.0000\t0.0000")
}

func TestBuildCrossingsBecomeJunctions(t *testing.T) {
	req := domain.BuildRequest{
		Settings: domain.ModelSettings{
			FlowUnit:        domain.FlowGPM,
			HeadlossFormula: domain.HeadlossHazenWilliams,
		},
		AssignedData: map[domain.ElementKind]*geojson.FeatureCollection{
			domain.ElementPipes: layer(
				orb.LineString{{0, 0}, {10, 10}},
				orb.LineString{{0, 10}, {10, 0}},
			),
		},
	}

	res, err := testBuilder().Build(context.Background(), req, nil)

	require.NoError(t, err)
	// Four outer endpoints plus the crossing junction; four pipe parts.
	assert.Equal(t, 5, res.NodeCount)
	assert.Equal(t, 4, res.LinkCount)
	assert.Empty(t, res.Warnings)
	assert.Contains(t, res.INPFile, "P1_1")
	assert.Contains(t, res.INPFile, "P2_2")
}

func TestBuildMultiPartGeometry(t *testing.T) {
	req := domain.BuildRequest{
		Settings: domain.ModelSettings{
			FlowUnit:        domain.FlowGPM,
			HeadlossFormula: domain.HeadlossHazenWilliams,
		},
		AssignedData: map[domain.ElementKind]*geojson.FeatureCollection{
			domain.ElementPipes: layer(orb.MultiLineString{
				{{0, 0}, {10, 0}},
				{{10, 0}, {20, 0}},
			}),
		},
	}

	res, err := testBuilder().Build(context.Background(), req, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, res.NodeCount)
	assert.Equal(t, 2, res.LinkCount)
}

func TestBuildPointValveSeedsAJunction(t *testing.T) {
	req := domain.BuildRequest{
		Settings: domain.ModelSettings{
			FlowUnit:        domain.FlowGPM,
			HeadlossFormula: domain.HeadlossHazenWilliams,
		},
		AssignedData: map[domain.ElementKind]*geojson.FeatureCollection{
			domain.ElementValves: layer(orb.Point{5, 0}),
			domain.ElementPipes: layer(
				orb.LineString{{0, 0}, {5, 0}},
				orb.LineString{{5, 0}, {10, 0}},
			),
		},
	}

	res, err := testBuilder().Build(context.Background(), req, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, res.NodeCount)
	assert.Equal(t, 2, res.LinkCount)
	// The valve contributed a node, not a link, so the VALVES section holds
	// only its column header.
	assert.NotContains(t, res.INPFile, "V1")
}

func TestBuildSnapToleranceOverride(t *testing.T) {
	req := domain.BuildRequest{
		Settings: domain.ModelSettings{
			FlowUnit:        domain.FlowGPM,
			HeadlossFormula: domain.HeadlossHazenWilliams,
		},
		AssignedData: map[domain.ElementKind]*geojson.FeatureCollection{
			domain.ElementPipes: layer(
				orb.LineString{{0, 0}, {10, 0}},
				orb.LineString{{10.5, 0}, {20, 0}},
			),
		},
	}

	res, err := testBuilder().Build(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, res.NodeCount, "default tolerance keeps the gap")
	assert.NotEmpty(t, res.Warnings)

	req.SnapTolerance = 1.0
	res, err = testBuilder().Build(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, res.NodeCount, "wider tolerance closes the gap")
	assert.Empty(t, res.Warnings)
}

func TestBuildDegenerateGeometry(t *testing.T) {
	req := domain.BuildRequest{
		Settings: domain.ModelSettings{
			FlowUnit:        domain.FlowGPM,
			HeadlossFormula: domain.HeadlossHazenWilliams,
		},
		AssignedData: map[domain.ElementKind]*geojson.FeatureCollection{
			domain.ElementPipes: layer(orb.LineString{{0, 0}, {0.001, 0}}),
		},
	}

	_, err := testBuilder().Build(context.Background(), req, nil)

	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrDegenerateGeometry))

	var be *domain.BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, string(pipeline.StageBuildingGraph), be.Stage)
}

func TestBuildWarningsAttachToResult(t *testing.T) {
	req := twoJunctionRequest()
	req.AssignedData[domain.ElementJunctions] = layer(
		orb.Point{0, 0}, orb.Point{10, 0}, orb.Point{500, 500},
	)

	var events []pipeline.Event
	res, err := testBuilder().Build(context.Background(), req, collectEvents(&events))

	require.NoError(t, err)
	kinds := make([]domain.WarningKind, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		kinds = append(kinds, w.Kind)
	}
	assert.Contains(t, kinds, domain.WarnIsolatedNode)
	assert.Contains(t, kinds, domain.WarnDisconnectedNetwork)

	terminal := events[len(events)-1]
	assert.Equal(t, "complete", terminal.Type)
	assert.Equal(t, res.Warnings, terminal.Warnings)
}

func TestBuildWithBaseDocument(t *testing.T) {
	req := twoJunctionRequest()
	req.BaseINP = "[TITLE]\nOperator master model\n\n[COORDINATES]\nJ1\t999\t999\n\n[END]"

	res, err := testBuilder().Build(context.Background(), req, nil)

	require.NoError(t, err)
	assert.Contains(t, res.INPFile, "Operator master model")
	assert.NotContains(t, res.INPFile, "999")
	assert.Contains(t, res.INPFile, "J1\t0.0000\t0.0000")
}

func TestBuildRejectsConcurrentBuilds(t *testing.T) {
	b := testBuilder()

	var once sync.Once
	started := make(chan struct{})
	release := make(chan struct{})

	errCh := make(chan error, 1)
	go func() {
		_, err := b.Build(context.Background(), twoJunctionRequest(), func(pipeline.Event) {
			once.Do(func() { close(started) })
			<-release
		})
		errCh <- err
	}()

	<-started
	_, err := b.Build(context.Background(), twoJunctionRequest(), nil)
	assert.ErrorIs(t, err, pipeline.ErrBuildInProgress)

	close(release)
	require.NoError(t, <-errCh)

	// The slot frees up once the first build finishes.
	_, err = b.Build(context.Background(), twoJunctionRequest(), nil)
	assert.NoError(t, err)
}

func TestBuildCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testBuilder().Build(ctx, twoJunctionRequest(), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckReadiness(t *testing.T) {
	b := testBuilder()

	require.Error(t, b.CheckReadiness(context.Background()))

	_, err := b.Build(context.Background(), twoJunctionRequest(), nil)
	require.NoError(t, err)

	assert.NoError(t, b.CheckReadiness(context.Background()))
}

func TestStagesMatchProtocolNames(t *testing.T) {
	expected := []pipeline.Stage{
		"reading config",
		"validating",
		"converting multi-part geometry",
		"simplifying crossings",
		"building graph",
		"calculating connectivity",
		"assigning elevations",
		"generating the document",
		"finished",
	}
	assert.Equal(t, expected, pipeline.Stages())
}
