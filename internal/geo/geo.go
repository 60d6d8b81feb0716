// Package geo separates map markers that share coordinates.
package geo

import (
	"html"
	"math"

	"solarintel/internal/models"
)

// Defaults match the competitor map.
const (
	DefaultPrecision = 4
	DefaultRadiusM   = 120.0

	// MetersPerDegreeLat converts a north-south distance in meters to degrees.
	MetersPerDegreeLat = 111320.0

	earthRadiusM = 6371008.8

	// minLonScale bounds the longitude correction near the poles (about 89.94°).
	minLonScale = 1e-3
)

// Options controls grouping precision and displacement radius.
type Options struct {
	Precision int
	RadiusM   float64
}

// DefaultOptions returns four-decimal grouping and a 120 m radius.
func DefaultOptions() Options {
	return Options{Precision: DefaultPrecision, RadiusM: DefaultRadiusM}
}

type cell struct {
	lat, lon int64
}

// Decollide returns a copy of entities in the same order, where every group
// sharing a rounded coordinate is spread on a circle of opts.RadiusM around
// its original point. The i-th member of a group of n (input order) moves
// along angle i*2π/n. Singletons are unchanged. Labels are filled in.
func Decollide(entities []models.LocatedEntity, opts Options) []models.LocatedEntity {
	if opts.RadiusM <= 0 {
		opts.RadiusM = DefaultRadiusM
	}

	scale := math.Pow(10, float64(opts.Precision))

	groups := make(map[cell][]int)
	for i, e := range entities {
		c := cell{
			lat: int64(math.Round(e.Lat * scale)),
			lon: int64(math.Round(e.Lon * scale)),
		}
		groups[c] = append(groups[c], i)
	}

	out := make([]models.LocatedEntity, len(entities))
	copy(out, entities)

	rDeg := opts.RadiusM / MetersPerDegreeLat

	for _, members := range groups {
		n := len(members)
		if n < 2 {
			continue
		}

		for i, idx := range members {
			angle := float64(i) * (2 * math.Pi / float64(n))
			lat := entities[idx].Lat

			out[idx].Lat = lat + rDeg*math.Sin(angle)
			lonScale := math.Max(math.Abs(math.Cos(lat*math.Pi/180)), minLonScale)
			out[idx].Lon = entities[idx].Lon + rDeg*math.Cos(angle)/lonScale
		}
	}

	for i := range out {
		out[i].Label = Label(out[i])
	}

	return out
}

// Label renders the map tooltip for e.
func Label(e models.LocatedEntity) string {
	return "<b>" + html.EscapeString(e.Name) + "</b><br>" +
		"<a href='" + html.EscapeString(e.Link) + "' target='_blank'>Projects ↗</a>"
}

// Centroid returns the mean coordinate, or (0, 0) for an empty set.
func Centroid(entities []models.LocatedEntity) (lat, lon float64) {
	if len(entities) == 0 {
		return 0, 0
	}

	for _, e := range entities {
		lat += e.Lat
		lon += e.Lon
	}

	n := float64(len(entities))

	return lat / n, lon / n
}

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := math.Pi / 180
	dLat := (lat2 - lat1) * toRad
	dLon := (lon2 - lon1) * toRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*toRad)*math.Cos(lat2*toRad)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusM * math.Asin(math.Min(1, math.Sqrt(a)))
}
