package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarintel/internal/models"
)

func TestDecollide_ThreeAtOrigin(t *testing.T) {
	in := []models.LocatedEntity{
		{Name: "A", Lat: 0, Lon: 0},
		{Name: "B", Lat: 0, Lon: 0},
		{Name: "C", Lat: 0, Lon: 0},
	}

	out := Decollide(in, DefaultOptions())
	require.Len(t, out, 3)

	for i, e := range out {
		d := HaversineMeters(0, 0, e.Lat, e.Lon)
		assert.InDelta(t, DefaultRadiusM, d, 1.0, "member %d distance", i)

		for j := i + 1; j < len(out); j++ {
			pair := HaversineMeters(e.Lat, e.Lon, out[j].Lat, out[j].Lon)
			assert.Greater(t, pair, DefaultRadiusM-1.0, "pair %d-%d", i, j)
		}
	}

	// Member 0 sits at angle 0: pure eastward shift.
	assert.Equal(t, 0.0, out[0].Lat)
	assert.InDelta(t, DefaultRadiusM/MetersPerDegreeLat, out[0].Lon, 1e-12)

	again := Decollide(in, DefaultOptions())
	for i := range out {
		assert.Equal(t, math.Float64bits(out[i].Lat), math.Float64bits(again[i].Lat))
		assert.Equal(t, math.Float64bits(out[i].Lon), math.Float64bits(again[i].Lon))
	}

	assert.Equal(t, 0.0, in[0].Lon, "input is not mutated")
}

func TestDecollide_SingletonUnchanged(t *testing.T) {
	in := []models.LocatedEntity{
		{Name: "Kiewit", Lat: 41.1601, Lon: -95.5611},
		{Name: "A", Lat: 10, Lon: 10},
		{Name: "B", Lat: 10.00001, Lon: 10.00004},
	}

	out := Decollide(in, DefaultOptions())

	assert.Equal(t, in[0].Lat, out[0].Lat)
	assert.Equal(t, in[0].Lon, out[0].Lon)
	assert.NotEqual(t, in[1].Lon, out[1].Lon, "rounded-equal points are a group")
	assert.NotEqual(t, in[2].Lon, out[2].Lon)
}

func TestDecollide_LongitudeCorrection(t *testing.T) {
	in := []models.LocatedEntity{
		{Name: "A", Lat: 60, Lon: 10},
		{Name: "B", Lat: 60, Lon: 10},
	}

	out := Decollide(in, DefaultOptions())

	// At 60° a degree of longitude is half as long, so the shift doubles.
	wantDLon := DefaultRadiusM / MetersPerDegreeLat / math.Cos(60*math.Pi/180)
	assert.InDelta(t, wantDLon, out[0].Lon-10, 1e-12)
	assert.InDelta(t, DefaultRadiusM, HaversineMeters(60, 10, out[0].Lat, out[0].Lon), 1.0)
	assert.InDelta(t, DefaultRadiusM, HaversineMeters(60, 10, out[1].Lat, out[1].Lon), 1.0)
}

func TestDecollide_PreservesOrderAndLabels(t *testing.T) {
	in := []models.LocatedEntity{
		{Name: "X", Lat: 1, Lon: 1, Link: "https://x"},
		{Name: "Y", Lat: 2, Lon: 2, Link: "https://y"},
		{Name: "Z", Lat: 1, Lon: 1, Link: "https://z"},
	}

	out := Decollide(in, Options{Precision: 4, RadiusM: 50})

	assert.Equal(t, []string{"X", "Y", "Z"}, []string{out[0].Name, out[1].Name, out[2].Name})
	assert.Contains(t, out[1].Label, "<b>Y</b>")
	assert.InDelta(t, 50, HaversineMeters(1, 1, out[2].Lat, out[2].Lon), 1.0)
}

func TestLabel_Escapes(t *testing.T) {
	got := Label(models.LocatedEntity{Name: "Black & Veatch", Link: "https://bv.com/?a=1&b='2'"})

	assert.Equal(t,
		"<b>Black &amp; Veatch</b><br><a href='https://bv.com/?a=1&amp;b=&#39;2&#39;' target='_blank'>Projects ↗</a>",
		got)
}

func TestCentroid(t *testing.T) {
	lat, lon := Centroid([]models.LocatedEntity{{Lat: 10, Lon: 20}, {Lat: 30, Lon: -20}})
	assert.InDelta(t, 20, lat, 1e-12)
	assert.InDelta(t, 0, lon, 1e-12)

	lat, lon = Centroid(nil)
	assert.Zero(t, lat)
	assert.Zero(t, lon)
}

func TestLoadEntities_Default(t *testing.T) {
	entities, err := LoadEntities("")
	require.NoError(t, err)
	assert.Len(t, entities, 37)
	assert.Equal(t, "Grupo Ortiz", entities[0].Name)
}

func TestParseEntities_Errors(t *testing.T) {
	_, err := ParseEntities([]byte("entities: []"))
	assert.ErrorIs(t, err, ErrNoEntities)

	_, err = ParseEntities([]byte("entities:\n  - {lat: 1, lon: 1}"))
	assert.ErrorIs(t, err, ErrEntityName)

	_, err = ParseEntities([]byte("entities:\n  - {name: a, lat: 91, lon: 1}"))
	assert.ErrorIs(t, err, ErrEntityCoordinate)

	_, err = ParseEntities([]byte("entities:\n  - {name: a, lat: 90, lon: 1}"))
	assert.ErrorIs(t, err, ErrEntityCoordinate)

	_, err = ParseEntities([]byte("entities:\n  - {name: a, lat: -90, lon: 1}"))
	assert.ErrorIs(t, err, ErrEntityCoordinate)
}

func TestDecollide_PoleStaysBounded(t *testing.T) {
	out := Decollide([]models.LocatedEntity{
		{Name: "A", Lat: 90, Lon: 0},
		{Name: "B", Lat: 90, Lon: 0},
	}, DefaultOptions())

	for _, e := range out {
		assert.False(t, math.IsInf(e.Lon, 0) || math.IsNaN(e.Lon))
		assert.Less(t, math.Abs(e.Lon), 2.0)
	}

	assert.NotEqual(t, out[0].Lon, out[1].Lon)
}
