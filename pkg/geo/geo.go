package geo

import (
	"context"
	"math"
)

// EarthRadiusMeters is the mean Earth radius of the spherical model used for
// every great-circle distance in this module.
const EarthRadiusMeters = 6_371_000.0

// LatLng represents a geographic coordinate in degrees (WGS84).
type LatLng struct {
	Lat float64
	Lng float64
}

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// HaversineKm is Haversine in kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	return Haversine(lat1, lon1, lat2, lon2) / 1000
}

// ValidCoord reports whether lat/lng are finite and inside the WGS84 range.
func ValidCoord(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// BBox defines a geographic bounding box.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// IsZero returns true if the bbox is unset.
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

// Contains returns true if the point is inside the bounding box.
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// boundPadding widens BoundAround so points exactly on the circle survive
// floating-point rounding.
const boundPadding = 1.001

// BoundAround returns a box containing every point within meters of
// (lat, lng) under the Haversine model. Near the poles or across the
// antimeridian the longitude range widens to the full [-180, 180].
func BoundAround(lat, lng, meters float64) BBox {
	delta := meters / EarthRadiusMeters * boundPadding // angular radius
	dLat := delta * 180 / math.Pi

	b := BBox{
		MinLat: math.Max(lat-dLat, -90),
		MaxLat: math.Min(lat+dLat, 90),
		MinLng: -180,
		MaxLng: 180,
	}

	// The widest longitude offset on a sphere is asin(sin δ / cos φ); once
	// that exceeds 1 the circle covers a pole.
	cosLat := math.Cos(lat * math.Pi / 180)
	if delta >= math.Pi/2 || math.Sin(delta) >= cosLat {
		return b
	}
	dLng := math.Asin(math.Sin(delta)/cosLat) * 180 / math.Pi
	if lng-dLng < -180 || lng+dLng > 180 {
		return b
	}
	b.MinLng = lng - dLng
	b.MaxLng = lng + dLng
	return b
}

// Centroid returns the arithmetic mean of the given points.
func Centroid(points []LatLng) (LatLng, bool) {
	if len(points) == 0 {
		return LatLng{}, false
	}
	var sumLat, sumLng float64
	for _, p := range points {
		sumLat += p.Lat
		sumLng += p.Lng
	}
	n := float64(len(points))
	return LatLng{Lat: sumLat / n, Lng: sumLng / n}, true
}

// GridOrigins returns n×n points stepping stepKm north and east from start,
// row by row (latitude outer, longitude inner). One degree of latitude is
// taken as 111 km.
func GridOrigins(start LatLng, n int, stepKm float64) []LatLng {
	if n <= 0 {
		return nil
	}
	dLat := stepKm / 111
	dLng := stepKm / (111 * math.Cos(start.Lat*math.Pi/180))

	origins := make([]LatLng, 0, n*n)
	for i := range n {
		lat := start.Lat + float64(i)*dLat
		for j := range n {
			origins = append(origins, LatLng{Lat: lat, Lng: start.Lng + float64(j)*dLng})
		}
	}
	return origins
}

// GridCorners returns the closed outline of a grid built by GridOrigins.
func GridCorners(origins []LatLng, n int) []LatLng {
	if n <= 0 || len(origins) != n*n {
		return nil
	}
	return []LatLng{
		origins[0],
		origins[n-1],
		origins[n*n-1],
		origins[n*n-n],
		origins[0],
	}
}

// Measurer measures the distance in meters between two points.
// Implementations may call out to external services.
type Measurer interface {
	Distance(ctx context.Context, from, to LatLng) (float64, error)
}

// HaversineMeasurer measures straight great-circle distance locally.
type HaversineMeasurer struct{}

// Distance implements Measurer.
func (HaversineMeasurer) Distance(_ context.Context, from, to LatLng) (float64, error) {
	return Haversine(from.Lat, from.Lng, to.Lat, to.Lng), nil
}
