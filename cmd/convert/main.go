// Command convert builds an EPANET INP document from GIS layer files in one
// shot, driven by a YAML build configuration.
//
// Usage:
//
//	go run ./cmd/convert -config build.yaml -out model.inp
//
// The configuration references GeoJSON layer files by path and mirrors the
// service's build request:
//
//	settings:
//	  flowUnit: GPM
//	  headlossFormula: H-W
//	projection:
//	  originalProjection: EPSG:3857
//	  needsReprojection: true
//	snapTolerance: 0.01
//	layers:
//	  junctions: data/junctions.geojson
//	  pipes: data/pipes.geojson
//	attributeMapping:
//	  junctions: {Elevation: ELEV}
//	  pipes: {Diameter: DIA, Roughness: ROUGH}
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"
	"gopkg.in/yaml.v3"

	"github.com/aquaforge/netbuilder/internal/domain"
	"github.com/aquaforge/netbuilder/internal/observability"
	"github.com/aquaforge/netbuilder/internal/pipeline"
)

// fileConfig is the on-disk build configuration.
type fileConfig struct {
	Settings         domain.ModelSettings                           `yaml:"settings"`
	Projection       domain.ProjectionChoice                        `yaml:"projection"`
	SnapTolerance    float64                                        `yaml:"snapTolerance"`
	Precision        int                                            `yaml:"precision"`
	BaseINP          string                                         `yaml:"baseInp"` // path to an existing INP document
	Layers           map[domain.ElementKind]string                  `yaml:"layers"`
	AttributeMapping map[domain.ElementKind]domain.AttributeMapping `yaml:"attributeMapping"`
}

func main() {
	configPath := flag.String("config", "", "path to the YAML build configuration")
	outPath := flag.String("out", "model.inp", "path of the INP document to write")
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn, error")
	flag.Parse()

	if *configPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*configPath, *outPath, *logLevel); code != 0 {
		os.Exit(code)
	}
}

func run(configPath, outPath, logLevel string) int {
	req, precision, err := loadRequest(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	logger := observability.NewLogger(logLevel, "text")
	metrics := observability.NewMetricsForTesting() // no scrape endpoint in one-shot mode
	builder := pipeline.New(logger, metrics, req.SnapTolerance, precision)

	res, err := builder.Build(context.Background(), req, func(e pipeline.Event) {
		if e.Type == "progress" {
			fmt.Fprintf(os.Stderr, "... %s\n", e.Task)
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "WARNING [%s] %s\n", w.Kind, w.Message)
	}

	if err := os.WriteFile(outPath, []byte(res.INPFile), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: write %s: %v\n", outPath, err)
		return 1
	}

	fmt.Fprintf(os.Stderr, "wrote %s: %d nodes, %d links, %d warnings\n",
		outPath, res.NodeCount, res.LinkCount, len(res.Warnings))
	return 0
}

func loadRequest(path string) (domain.BuildRequest, int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.BuildRequest{}, 0, fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return domain.BuildRequest{}, 0, fmt.Errorf("parse config: %w", err)
	}

	assigned := make(map[domain.ElementKind]*geojson.FeatureCollection, len(cfg.Layers))
	for kind, layerPath := range cfg.Layers {
		data, err := os.ReadFile(layerPath)
		if err != nil {
			return domain.BuildRequest{}, 0, fmt.Errorf("read %s layer: %w", kind, err)
		}
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return domain.BuildRequest{}, 0, fmt.Errorf("parse %s layer: %w", kind, err)
		}
		assigned[kind] = fc
	}

	var base string
	if cfg.BaseINP != "" {
		data, err := os.ReadFile(cfg.BaseINP)
		if err != nil {
			return domain.BuildRequest{}, 0, fmt.Errorf("read base INP: %w", err)
		}
		base = string(data)
	}

	return domain.BuildRequest{
		Settings:         cfg.Settings,
		AssignedData:     assigned,
		AttributeMapping: cfg.AttributeMapping,
		Projection:       cfg.Projection,
		BaseINP:          base,
		SnapTolerance:    cfg.SnapTolerance,
	}, cfg.Precision, nil
}
