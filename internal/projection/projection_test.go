package projection

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquaforge/netbuilder/internal/domain"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		code       int
	}{
		{"bare code", "4326", 4326},
		{"epsg prefix", "EPSG:3857", 3857},
		{"lowercase prefix", "epsg:4326", 4326},
		{"padded", "  EPSG:4326  ", 4326},
		{"ogc urn", "urn:ogc:def:crs:EPSG::4326", 4326},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crs, err := Resolve(tt.identifier)
			require.NoError(t, err)
			assert.Equal(t, tt.code, crs.Code)
		})
	}

	t.Run("unparseable identifier", func(t *testing.T) {
		_, err := Resolve("web mercator")
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.ErrInvalidProjection))
	})

	t.Run("negative code", func(t *testing.T) {
		_, err := Resolve("-4326")
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.ErrInvalidProjection))
	})

	t.Run("code absent from the EPSG repository", func(t *testing.T) {
		_, err := Resolve("EPSG:999999")
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.ErrInvalidProjection))
		assert.Contains(t, err.Error(), "999999")
	})
}

func TestTransform(t *testing.T) {
	wgs84CRS, err := Resolve("EPSG:4326")
	require.NoError(t, err)
	mercator, err := Resolve("EPSG:3857")
	require.NoError(t, err)

	t.Run("lon/lat to web mercator", func(t *testing.T) {
		tr := Transform(wgs84CRS, mercator)

		p := tr(orb.Point{1, 0})
		assert.InDelta(t, 111319.4908, p[0], 0.01)
		assert.InDelta(t, 0, p[1], 0.01)

		p = tr(orb.Point{0, 1})
		assert.InDelta(t, 0, p[0], 0.01)
		assert.InDelta(t, 111325.1429, p[1], 0.01)
	})

	t.Run("round trip returns the original point", func(t *testing.T) {
		forward := Transform(wgs84CRS, mercator)
		back := Transform(mercator, wgs84CRS)

		orig := orb.Point{-97.7431, 30.2672}
		got := back(forward(orig))
		assert.InDelta(t, orig[0], got[0], 1e-6)
		assert.InDelta(t, orig[1], got[1], 1e-6)
	})

	t.Run("geometry recursion covers line strings", func(t *testing.T) {
		g := Geometry(mercator, wgs84CRS, orb.LineString{
			{111319.4908, 0},
			{222638.9816, 0},
		})

		ls, ok := g.(orb.LineString)
		require.True(t, ok)
		assert.InDelta(t, 1, ls[0][0], 1e-6)
		assert.InDelta(t, 2, ls[1][0], 1e-6)
	})
}

func TestFeatureCollection(t *testing.T) {
	mercator, err := Resolve("EPSG:3857")
	require.NoError(t, err)
	wgs84CRS, err := Resolve("EPSG:4326")
	require.NoError(t, err)

	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Point{111319.4908, 0}))
	nilGeom := &geojson.Feature{}
	fc.Features = append(fc.Features, nilGeom)

	FeatureCollection(mercator, wgs84CRS, fc)

	p, ok := fc.Features[0].Geometry.(orb.Point)
	require.True(t, ok)
	assert.InDelta(t, 1, p[0], 1e-6)
	assert.Nil(t, nilGeom.Geometry)
}

func TestLooksLikeLatLng(t *testing.T) {
	collection := func(pts ...orb.Point) *geojson.FeatureCollection {
		fc := geojson.NewFeatureCollection()
		for _, p := range pts {
			fc.Append(geojson.NewFeature(p))
		}
		return fc
	}

	t.Run("in-range coordinates look geographic", func(t *testing.T) {
		assert.True(t, LooksLikeLatLng(collection(orb.Point{-97.74, 30.27}, orb.Point{179, -89})))
	})

	t.Run("projected coordinates do not", func(t *testing.T) {
		assert.False(t, LooksLikeLatLng(collection(orb.Point{111319.49, 0})))
	})

	t.Run("one out-of-range feature decides", func(t *testing.T) {
		assert.False(t, LooksLikeLatLng(
			collection(orb.Point{1, 1}),
			collection(orb.Point{500, 0}),
		))
	})

	t.Run("no evidence reports false", func(t *testing.T) {
		assert.False(t, LooksLikeLatLng())
		assert.False(t, LooksLikeLatLng(nil))
		assert.False(t, LooksLikeLatLng(geojson.NewFeatureCollection()))
	})
}
