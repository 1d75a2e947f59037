package geo

import (
	"math"
	"testing"
	"time"

	"wayfarer/internal/types"
)

func TestHaversineKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		a, b      types.Point
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "same point",
			a:         types.Point{Lat: 25.033, Lng: 121.565},
			b:         types.Point{Lat: 25.033, Lng: 121.565},
			wantKm:    0,
			tolerance: 0.001,
		},
		{
			name:      "Taipei 101 to Taipei Main Station",
			a:         types.Point{Lat: 25.0340, Lng: 121.5645},
			b:         types.Point{Lat: 25.0478, Lng: 121.5170},
			wantKm:    5.0,
			tolerance: 0.5,
		},
		{
			name:      "Kyoto Station to Nara Park",
			a:         types.Point{Lat: 34.9858, Lng: 135.7588},
			b:         types.Point{Lat: 34.6851, Lng: 135.8430},
			wantKm:    34.3,
			tolerance: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("DistanceKm() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestHaversineKm_Symmetry(t *testing.T) {
	d1 := haversineKm(25.0, 121.0, 26.0, 122.0)
	d2 := haversineKm(26.0, 122.0, 25.0, 121.0)
	if math.Abs(d1-d2) > 0.0001 {
		t.Errorf("haversine is not symmetric: %f vs %f", d1, d2)
	}
}

func TestPercentile_NearestRank(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := Percentile(sorted, 50); got != 5 {
		t.Errorf("p50 = %v, want 5", got)
	}
	if got := Percentile(sorted, 75); got != 8 {
		t.Errorf("p75 = %v, want 8", got)
	}
	if got := Percentile(sorted, 95); got != 10 {
		t.Errorf("p95 = %v, want 10", got)
	}
	if got := Percentile(nil, 50); got != 0 {
		t.Errorf("empty percentile = %v, want 0", got)
	}
}

func TestCentroid_SkipsInvalid(t *testing.T) {
	c, ok := Centroid([]types.Point{{Lat: 10, Lng: 20}, {}, {Lat: 12, Lng: 22}})
	if !ok {
		t.Fatalf("expected centroid")
	}
	if c.Lat != 11 || c.Lng != 21 {
		t.Errorf("unexpected centroid %+v", c)
	}
	if _, ok := Centroid([]types.Point{{}}); ok {
		t.Errorf("expected no centroid for only invalid points")
	}
}

func TestEstimateTravel(t *testing.T) {
	if got := EstimateTravel(0); got != 0 {
		t.Errorf("zero distance = %v", got)
	}
	if got := EstimateTravel(0.2); got != MinTravel {
		t.Errorf("short walk = %v, want %v", got, MinTravel)
	}
	// 1 km walk at 4.5 km/h is ~13 minutes
	if got := EstimateTravel(1.0); got != 13*time.Minute {
		t.Errorf("1km walk = %v", got)
	}
	// 9 km transit: 30 minutes riding plus the wait
	if got := EstimateTravel(9.0); got != 36*time.Minute {
		t.Errorf("9km transit = %v", got)
	}
}

func TestSortByDistance(t *testing.T) {
	type stop struct {
		id string
		km float64
	}
	stops := []stop{{"c", 5}, {"a", 1}, {"b", 3}, {"d", 1}}
	SortByDistance(stops, func(s stop) float64 { return s.km })
	got := stops[0].id + stops[1].id + stops[2].id + stops[3].id
	if got != "adbc" {
		t.Errorf("unexpected sort order: %s", got)
	}
}

func TestSortByDistance_Empty(t *testing.T) {
	var stops []float64
	SortByDistance(stops, func(f float64) float64 { return f })
}
