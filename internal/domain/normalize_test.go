package domain

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("multipoint explodes into one feature per member", func(t *testing.T) {
		f := geojson.NewFeature(orb.MultiPoint{{0, 0}, {1, 1}, {2, 2}})
		f.Properties = geojson.Properties{"ELEV": 5.0}

		out := Normalize([]*geojson.Feature{f})

		require.Len(t, out, 3)
		for i, part := range out {
			p, ok := part.Geometry.(orb.Point)
			require.True(t, ok)
			assert.Equal(t, orb.Point{float64(i), float64(i)}, p)
			assert.Equal(t, 5.0, part.Properties["ELEV"])
		}
	})

	t.Run("multilinestring explodes into one feature per part", func(t *testing.T) {
		f := geojson.NewFeature(orb.MultiLineString{
			{{0, 0}, {1, 0}},
			{{0, 1}, {1, 1}, {2, 1}},
		})
		f.Properties = geojson.Properties{"DIA": 12.0}

		out := Normalize([]*geojson.Feature{f})

		require.Len(t, out, 2)
		first, ok := out[0].Geometry.(orb.LineString)
		require.True(t, ok)
		assert.Len(t, first, 2)
		second, ok := out[1].Geometry.(orb.LineString)
		require.True(t, ok)
		assert.Len(t, second, 3)
		assert.Equal(t, 12.0, out[1].Properties["DIA"])
	})

	t.Run("part properties do not alias the parent", func(t *testing.T) {
		f := geojson.NewFeature(orb.MultiPoint{{0, 0}, {1, 1}})
		f.Properties = geojson.Properties{"ELEV": 5.0}

		out := Normalize([]*geojson.Feature{f})
		out[0].Properties["ELEV"] = 99.0

		assert.Equal(t, 5.0, f.Properties["ELEV"])
		assert.Equal(t, 5.0, out[1].Properties["ELEV"])
	})

	t.Run("single-part features pass through unchanged", func(t *testing.T) {
		p := geojson.NewFeature(orb.Point{3, 4})
		ls := geojson.NewFeature(orb.LineString{{0, 0}, {1, 1}})

		out := Normalize([]*geojson.Feature{p, ls})

		require.Len(t, out, 2)
		assert.Same(t, p, out[0])
		assert.Same(t, ls, out[1])
	})

	t.Run("output preserves source then part order", func(t *testing.T) {
		a := geojson.NewFeature(orb.MultiPoint{{0, 0}, {1, 0}})
		b := geojson.NewFeature(orb.Point{9, 9})

		out := Normalize([]*geojson.Feature{a, b})

		require.Len(t, out, 3)
		assert.Equal(t, orb.Point{0, 0}, out[0].Geometry)
		assert.Equal(t, orb.Point{1, 0}, out[1].Geometry)
		assert.Equal(t, orb.Point{9, 9}, out[2].Geometry)
	})
}
