package geo

import (
	"context"
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name             string
		lat1, lon1       float64
		lat2, lon2       float64
		wantMeters       float64
		tolerancePercent float64
	}{
		{
			name: "Islamabad to Rawalpindi",
			lat1: 33.6844, lon1: 73.0479, // Islamabad
			lat2: 33.5651, lon2: 73.0169, // Rawalpindi
			wantMeters:       13_600,
			tolerancePercent: 2,
		},
		{
			name: "Same point",
			lat1: 33.7077, lon1: 73.0498,
			lat2: 33.7077, lon2: 73.0498,
			wantMeters:       0,
			tolerancePercent: 0,
		},
		{
			name: "London to Paris",
			lat1: 51.5074, lon1: -0.1278,
			lat2: 48.8566, lon2: 2.3522,
			wantMeters:       343_500,
			tolerancePercent: 1,
		},
		{
			name: "One millidegree of longitude at the equator",
			lat1: 0, lon1: 0,
			lat2: 0, lon2: 0.001,
			wantMeters:       111.19,
			tolerancePercent: 0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if tt.wantMeters == 0 {
				if got != 0 {
					t.Errorf("expected 0, got %f", got)
				}
				return
			}
			diff := math.Abs(got-tt.wantMeters) / tt.wantMeters * 100
			if diff > tt.tolerancePercent {
				t.Errorf("Haversine = %f m, want ~%f m (diff %.2f%%)", got, tt.wantMeters, diff)
			}
		})
	}
}

func TestHaversineSymmetric(t *testing.T) {
	a := Haversine(33.6, 73.0, 33.7, 73.1)
	b := Haversine(33.7, 73.1, 33.6, 73.0)
	if a != b {
		t.Errorf("Haversine not symmetric: %f vs %f", a, b)
	}
	if km := HaversineKm(33.6, 73.0, 33.7, 73.1); math.Abs(km*1000-a) > 1e-9 {
		t.Errorf("HaversineKm = %f, want %f", km, a/1000)
	}
}

func TestValidCoord(t *testing.T) {
	tests := []struct {
		lat, lng float64
		want     bool
	}{
		{33.7, 73.0, true},
		{90, 180, true},
		{-90, -180, true},
		{90.0001, 0, false},
		{0, -180.5, false},
		{math.NaN(), 0, false},
		{0, math.Inf(1), false},
	}
	for _, tt := range tests {
		if got := ValidCoord(tt.lat, tt.lng); got != tt.want {
			t.Errorf("ValidCoord(%v, %v) = %v, want %v", tt.lat, tt.lng, got, tt.want)
		}
	}
}

func TestBoundAroundContainsCircle(t *testing.T) {
	centers := []LatLng{
		{Lat: 0, Lng: 0},
		{Lat: 33.7, Lng: 73.05},
		{Lat: -60, Lng: 120},
		{Lat: 89.995, Lng: 10},
		{Lat: 10, Lng: 179.999},
	}
	const radius = 1000.0

	for _, c := range centers {
		b := BoundAround(c.Lat, c.Lng, radius)
		// Walk the circle by bearing and check every point is inside.
		for deg := 0; deg < 360; deg += 5 {
			p := destination(c, radius, float64(deg))
			if !b.Contains(p.Lat, p.Lng) {
				t.Errorf("center %+v bearing %d: point %+v outside %+v", c, deg, p, b)
			}
		}
	}
}

func TestBoundAroundWidensNearPole(t *testing.T) {
	b := BoundAround(89.999, 0, 1000)
	if b.MinLng != -180 || b.MaxLng != 180 {
		t.Errorf("expected full longitude range near pole, got %+v", b)
	}
	if b.MaxLat != 90 {
		t.Errorf("MaxLat = %f, want 90", b.MaxLat)
	}
}

func TestBBox(t *testing.T) {
	var zero BBox
	if !zero.IsZero() {
		t.Error("zero bbox should report IsZero")
	}
	b := BBox{MinLat: 1, MaxLat: 2, MinLng: 3, MaxLng: 4}
	if b.IsZero() {
		t.Error("non-zero bbox reported IsZero")
	}
	if !b.Contains(1.5, 3.5) || !b.Contains(1, 4) {
		t.Error("expected point inside bbox (edges inclusive)")
	}
	if b.Contains(0.9, 3.5) {
		t.Error("expected point outside bbox")
	}
}

func TestGridOrigins(t *testing.T) {
	start := LatLng{Lat: 33.351247, Lng: 72.772021}
	origins := GridOrigins(start, 3, 2)
	if len(origins) != 9 {
		t.Fatalf("len = %d, want 9", len(origins))
	}
	if origins[0] != start {
		t.Errorf("first origin = %+v, want %+v", origins[0], start)
	}
	// Neighbours along a row are ~2 km apart east, rows ~2 km apart north.
	if d := Haversine(origins[0].Lat, origins[0].Lng, origins[1].Lat, origins[1].Lng); math.Abs(d-2000) > 40 {
		t.Errorf("east step = %f m, want ~2000", d)
	}
	if d := Haversine(origins[0].Lat, origins[0].Lng, origins[3].Lat, origins[3].Lng); math.Abs(d-2000) > 40 {
		t.Errorf("north step = %f m, want ~2000", d)
	}

	corners := GridCorners(origins, 3)
	if len(corners) != 5 || corners[0] != corners[4] {
		t.Errorf("corners not a closed ring: %+v", corners)
	}
	if corners[2] != origins[8] {
		t.Errorf("corner[2] = %+v, want %+v", corners[2], origins[8])
	}
	if GridOrigins(start, 0, 2) != nil {
		t.Error("expected nil grid for n=0")
	}
}

func TestCentroid(t *testing.T) {
	c, ok := Centroid([]LatLng{{Lat: 0, Lng: 0}, {Lat: 2, Lng: 4}})
	if !ok || c.Lat != 1 || c.Lng != 2 {
		t.Errorf("Centroid = %+v (%v), want {1 2}", c, ok)
	}
	if _, ok := Centroid(nil); ok {
		t.Error("expected ok=false for empty input")
	}
}

func TestHaversineMeasurer(t *testing.T) {
	var m Measurer = HaversineMeasurer{}
	d, err := m.Distance(context.Background(), LatLng{Lat: 0, Lng: 0}, LatLng{Lat: 0, Lng: 0.001})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(d-Haversine(0, 0, 0, 0.001)) > 1e-9 {
		t.Errorf("Distance = %f", d)
	}
}

// destination returns the point at dist meters along bearing (degrees) from p.
func destination(p LatLng, dist, bearing float64) LatLng {
	lat1 := p.Lat * math.Pi / 180
	lon1 := p.Lng * math.Pi / 180
	brng := bearing * math.Pi / 180
	d := dist / EarthRadiusMeters

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(math.Sin(brng)*math.Sin(d)*math.Cos(lat1), math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))
	lng := lon2 * 180 / math.Pi
	if lng > 180 {
		lng -= 360
	} else if lng < -180 {
		lng += 360
	}
	return LatLng{Lat: lat2 * 180 / math.Pi, Lng: lng}
}

func BenchmarkHaversine(b *testing.B) {
	for b.Loop() {
		Haversine(33.6844, 73.0479, 33.5651, 73.0169)
	}
}
