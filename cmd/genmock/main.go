// Command genmock writes a small deterministic water network as GeoJSON
// layer files plus a matching convert configuration. The network is a
// junction grid joined by pipes, fed by a reservoir through a pump, with a
// tank attached through a valve, so every element kind is exercised.
//
// Usage:
//
//	go run ./cmd/genmock -out-dir data/mock -rows 4 -cols 5
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func main() {
	outDir := flag.String("out-dir", "data/mock", "directory to write layer files into")
	rows := flag.Int("rows", 4, "junction grid rows")
	cols := flag.Int("cols", 5, "junction grid columns")
	spacing := flag.Float64("spacing", 100, "grid spacing in working-CRS units")
	flag.Parse()

	if *rows < 2 || *cols < 2 {
		fmt.Fprintln(os.Stderr, "FATAL: grid needs at least 2 rows and 2 columns")
		os.Exit(1)
	}

	if err := run(*outDir, *rows, *cols, *spacing); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

func run(outDir string, rows, cols int, spacing float64) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	grid := func(r, c int) orb.Point {
		return orb.Point{float64(c) * spacing, float64(r) * spacing}
	}

	junctions := geojson.NewFeatureCollection()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			f := geojson.NewFeature(grid(r, c))
			f.Properties = geojson.Properties{
				"NAME": fmt.Sprintf("grid-%d-%d", r, c),
				"ELEV": 100.0 + float64(r+c)*2,
				"DMD":  10.0,
			}
			junctions.Append(f)
		}
	}

	pipes := geojson.NewFeatureCollection()
	addPipe := func(a, b orb.Point) {
		f := geojson.NewFeature(orb.LineString{a, b})
		f.Properties = geojson.Properties{"DIA": 8.0}
		pipes.Append(f)
	}
	for r := 0; r < rows; r++ {
		for c := 0; c+1 < cols; c++ {
			addPipe(grid(r, c), grid(r, c+1))
		}
	}
	for c := 0; c < cols; c++ {
		for r := 0; r+1 < rows; r++ {
			addPipe(grid(r, c), grid(r+1, c))
		}
	}

	tankPoint := orb.Point{-spacing, 0}
	tanks := geojson.NewFeatureCollection()
	tank := geojson.NewFeature(tankPoint)
	tank.Properties = geojson.Properties{"ELEV": 130.0, "INIT": 15.0, "MAXLVL": 25.0}
	tanks.Append(tank)

	reservoirPoint := orb.Point{float64(cols) * spacing, 0}
	reservoirs := geojson.NewFeatureCollection()
	reservoir := geojson.NewFeature(reservoirPoint)
	reservoir.Properties = geojson.Properties{"HEAD": 150.0}
	reservoirs.Append(reservoir)

	valves := geojson.NewFeatureCollection()
	valve := geojson.NewFeature(orb.LineString{tankPoint, grid(0, 0)})
	valve.Properties = geojson.Properties{"DIA": 8.0, "VTYPE": "PRV", "SET": 40.0}
	valves.Append(valve)

	pumps := geojson.NewFeatureCollection()
	pump := geojson.NewFeature(orb.LineString{reservoirPoint, grid(0, cols-1)})
	pump.Properties = geojson.Properties{"PWR": 75.0}
	pumps.Append(pump)

	layers := map[string]*geojson.FeatureCollection{
		"junctions":  junctions,
		"tanks":      tanks,
		"reservoirs": reservoirs,
		"pipes":      pipes,
		"valves":     valves,
		"pumps":      pumps,
	}
	for name, fc := range layers {
		if err := writeJSON(filepath.Join(outDir, name+".geojson"), fc); err != nil {
			return err
		}
	}

	if err := writeConvertConfig(outDir); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "wrote %d junctions and %d pipes to %s\n",
		len(junctions.Features), len(pipes.Features), outDir)
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func writeConvertConfig(outDir string) error {
	config := `settings:
  flowUnit: GPM
  headlossFormula: H-W
projection:
  dataIsLatLng: false
  needsReprojection: false
snapTolerance: 0.01
layers:
  junctions: junctions.geojson
  tanks: tanks.geojson
  reservoirs: reservoirs.geojson
  pipes: pipes.geojson
  valves: valves.geojson
  pumps: pumps.geojson
attributeMapping:
  junctions: {Elevation: ELEV, Demand: DMD}
  tanks: {Elevation: ELEV, InitLevel: INIT, MaxLevel: MAXLVL}
  reservoirs: {Head: HEAD}
  pipes: {Diameter: DIA}
  valves: {Diameter: DIA, Type: VTYPE, Setting: SET}
  pumps: {Power: PWR}
`
	return os.WriteFile(filepath.Join(outDir, "build.yaml"), []byte(config), 0o644)
}
