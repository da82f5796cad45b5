// Package pipeline orchestrates the staged conversion of GIS layers into an
// EPANET INP document, emitting one progress event per stage followed by a
// single terminal result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/aquaforge/netbuilder/internal/domain"
	"github.com/aquaforge/netbuilder/internal/inp"
	"github.com/aquaforge/netbuilder/internal/observability"
	"github.com/aquaforge/netbuilder/internal/projection"
	"github.com/aquaforge/netbuilder/internal/topology"
)

// ErrBuildInProgress is returned when a build is submitted while another is
// still running. The Builder holds no cross-build state; callers who want
// replace-instead-of-reject semantics create a fresh Builder.
var ErrBuildInProgress = errors.New("a build is already in progress")

// Builder runs builds one at a time. Stages are sequential and
// single-threaded; each depends on the previous stage's full output.
type Builder struct {
	logger    *slog.Logger
	metrics   *observability.Metrics
	validate  *validator.Validate
	epsilon   float64
	precision int

	active atomic.Bool
	built  atomic.Bool
}

// New creates a Builder with the service-level snapping tolerance and
// numeric output precision.
func New(logger *slog.Logger, metrics *observability.Metrics, epsilon float64, precision int) *Builder {
	return &Builder{
		logger:    logger,
		metrics:   metrics,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		epsilon:   epsilon,
		precision: precision,
	}
}

// CheckReadiness returns nil once the builder has completed at least one
// build, or an error describing why the service is not yet ready.
func (b *Builder) CheckReadiness(_ context.Context) error {
	if !b.built.Load() {
		return errors.New("no build has completed yet")
	}
	return nil
}

// layerSet carries the resolved intermediate inputs between stages.
type layerSet struct {
	points []topology.PointFeature
	lines  []topology.Line
}

// Build runs the whole pipeline for one request. Every stage emits a
// progress event through emit before running; the terminal complete or error
// event is emitted before returning. Fatal errors abort at the stage where
// they are detected; warnings accumulate on the result instead.
func (b *Builder) Build(ctx context.Context, req domain.BuildRequest, emit EventFunc) (domain.BuildResult, error) {
	if emit == nil {
		emit = func(Event) {}
	}
	if !b.active.CompareAndSwap(false, true) {
		return domain.BuildResult{}, ErrBuildInProgress
	}
	defer b.active.Store(false)

	b.metrics.BuildsStarted.Inc()
	b.metrics.BuildActive.Set(1)
	defer b.metrics.BuildActive.Set(0)
	start := time.Now()

	res, err := b.run(ctx, req, emit)
	if err != nil {
		b.metrics.BuildsFailed.Inc()
		b.logger.Error("build failed", "error", err)
		emit(errorEvent(err))
		return domain.BuildResult{}, err
	}

	b.metrics.BuildsCompleted.Inc()
	b.metrics.BuildDuration.Observe(time.Since(start).Seconds())
	b.metrics.NodesBuilt.Observe(float64(res.NodeCount))
	b.metrics.LinksBuilt.Observe(float64(res.LinkCount))
	b.built.Store(true)
	b.logger.Info("build complete",
		"nodes", res.NodeCount, "links", res.LinkCount, "warnings", len(res.Warnings))
	emit(completeEvent(res))
	return res, nil
}

func (b *Builder) run(ctx context.Context, req domain.BuildRequest, emit EventFunc) (domain.BuildResult, error) {
	var zero domain.BuildResult

	step := func(stage Stage, fn func() error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		emit(progressEvent(stage))
		b.logger.Debug("stage started", "stage", stage)
		t0 := time.Now()
		if err := fn(); err != nil {
			var be *domain.BuildError
			if errors.As(err, &be) && be.Stage == "" {
				be.Stage = string(stage)
			}
			return err
		}
		b.metrics.StageDuration.WithLabelValues(string(stage)).Observe(time.Since(t0).Seconds())
		return nil
	}

	epsilon := b.epsilon
	if err := step(StageReadingConfig, func() error {
		if req.SnapTolerance > 0 {
			epsilon = req.SnapTolerance
		}
		return nil
	}); err != nil {
		return zero, err
	}

	var source, target projection.CRS
	reproject := req.Projection.NeedsReprojection && !req.Projection.DataIsLatLng
	if err := step(StageValidating, func() error {
		if err := b.validate.Struct(&req); err != nil {
			return fmt.Errorf("invalid build request: %w", err)
		}
		if err := b.validateGeometryTypes(req); err != nil {
			return err
		}
		if !reproject {
			return nil
		}
		var err error
		source, err = projection.Resolve(sourceIdentifier(req.Projection))
		if err != nil {
			return err
		}
		target, err = projection.Resolve(fmt.Sprintf("EPSG:%d", projection.WGS84Code))
		if err != nil {
			return err
		}
		if projection.LooksLikeLatLng(collections(req)...) {
			b.logger.Warn("reprojection requested but data already looks geographic",
				"source", sourceIdentifier(req.Projection))
		}
		return nil
	}); err != nil {
		return zero, err
	}

	var layers layerSet
	if err := step(StageConvertingGeometry, func() error {
		var err error
		layers, err = b.convertLayers(req, reproject, source, target)
		return err
	}); err != nil {
		return zero, err
	}

	if err := step(StageSimplifyingCrossings, func() error {
		before := len(layers.lines)
		layers.lines = topology.SplitCrossings(layers.lines, epsilon)
		if added := len(layers.lines) - before; added > 0 {
			b.logger.Info("crossings simplified", "segments_added", added)
		}
		return nil
	}); err != nil {
		return zero, err
	}

	var graph *domain.NetworkGraph
	if err := step(StageBuildingGraph, func() error {
		var err error
		graph, err = topology.NewBuilder(epsilon, b.logger).Build(layers.points, layers.lines)
		return err
	}); err != nil {
		return zero, err
	}

	var warnings []domain.Warning
	if err := step(StageConnectivity, func() error {
		warnings = topology.AnalyzeConnectivity(graph)
		for _, w := range warnings {
			b.metrics.Warnings.WithLabelValues(string(w.Kind)).Inc()
			b.logger.Warn("connectivity warning", "kind", w.Kind, "subject", w.Subject)
		}
		return nil
	}); err != nil {
		return zero, err
	}

	if err := step(StageElevations, func() error {
		if n := topology.AssignElevations(graph, req.Settings); n > 0 {
			b.logger.Info("elevations assigned", "nodes", n)
		}
		return nil
	}); err != nil {
		return zero, err
	}

	var document string
	if err := step(StageGenerating, func() error {
		var err error
		document, err = inp.NewSerializer(b.precision).Serialize(graph, req.Settings, req.BaseINP)
		return err
	}); err != nil {
		return zero, err
	}

	if err := step(StageFinished, func() error { return nil }); err != nil {
		return zero, err
	}

	return domain.BuildResult{
		INPFile:   document,
		Warnings:  warnings,
		NodeCount: len(graph.Nodes),
		LinkCount: len(graph.Links),
	}, nil
}

// validateGeometryTypes rejects features whose geometry type is not
// permitted for their element kind before any of them is transformed.
func (b *Builder) validateGeometryTypes(req domain.BuildRequest) error {
	for _, kind := range domain.ElementKinds() {
		fc := req.AssignedData[kind]
		if fc == nil {
			continue
		}
		schema := domain.SchemaFor(kind)
		for i, f := range fc.Features {
			if f.Geometry == nil {
				return &domain.BuildError{
					Kind:         domain.ErrInvalidGeometryForElement,
					Element:      kind,
					FeatureIndex: i,
					Detail:       "feature has no geometry",
				}
			}
			if !schema.AllowsGeometry(f.Geometry.GeoJSONType()) {
				return &domain.BuildError{
					Kind:         domain.ErrInvalidGeometryForElement,
					Element:      kind,
					FeatureIndex: i,
					Detail:       f.Geometry.GeoJSONType() + " geometry is not valid for this element kind",
				}
			}
		}
	}
	return nil
}

// convertLayers normalizes multi-part geometries, reprojects when required,
// and resolves attributes, producing the point and line inputs for topology
// building. Kinds are processed in schema order and features in source
// order, which keeps downstream ID minting deterministic.
func (b *Builder) convertLayers(req domain.BuildRequest, reproject bool, source, target projection.CRS) (layerSet, error) {
	var out layerSet

	linkKinds := map[domain.ElementKind]domain.LinkKind{
		domain.ElementPipes:  domain.LinkPipe,
		domain.ElementValves: domain.LinkValve,
		domain.ElementPumps:  domain.LinkPump,
	}

	for _, kind := range domain.ElementKinds() {
		fc := req.AssignedData[kind]
		if fc == nil {
			continue
		}
		mapping := req.MappingFor(kind)
		features := domain.Normalize(fc.Features)

		for i, f := range features {
			if reproject {
				f.Geometry = projection.Geometry(source, target, f.Geometry)
			}

			attrs, err := domain.ResolveAttributes(f, kind, mapping, req.Settings, i)
			if err != nil {
				return layerSet{}, err
			}

			switch g := f.Geometry.(type) {
			case orb.Point:
				out.points = append(out.points, topology.PointFeature{
					Element:    kind,
					Point:      g,
					Attributes: attrs,
					Index:      i,
				})
			case orb.LineString:
				ln, err := topology.NewLine(kind, linkKinds[kind], []orb.Point(g), attrs, i)
				if err != nil {
					return layerSet{}, err
				}
				if kind == domain.ElementPipes && mapping["Length"] != "" {
					_, ln.LengthMapped = attrs.Number("Length")
				}
				out.lines = append(out.lines, ln)
			default:
				return layerSet{}, &domain.BuildError{
					Kind:         domain.ErrInvalidGeometryForElement,
					Element:      kind,
					FeatureIndex: i,
					Detail:       f.Geometry.GeoJSONType() + " geometry survived normalization",
				}
			}
		}
	}

	topology.MintLinkIDs(out.lines)
	return out, nil
}

// sourceIdentifier picks the CRS the data is actually in: the user's
// selection wins over the detected original.
func sourceIdentifier(p domain.ProjectionChoice) string {
	if p.SelectedProjection != "" {
		return p.SelectedProjection
	}
	return p.OriginalProjection
}

func collections(req domain.BuildRequest) []*geojson.FeatureCollection {
	out := make([]*geojson.FeatureCollection, 0, len(req.AssignedData))
	for _, kind := range domain.ElementKinds() {
		if fc := req.AssignedData[kind]; fc != nil {
			out = append(out, fc)
		}
	}
	return out
}
