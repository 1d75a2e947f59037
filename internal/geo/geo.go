// Package geo contains pure geographic computation helpers.
package geo

import (
	"math"
	"time"

	"wayfarer/internal/types"
)

const earthRadiusKm = 6371.0

// Travel model used when no directions provider is consulted.
const (
	WalkMaxKm       = 1.2
	WalkSpeedKmh    = 4.5
	TransitSpeedKmh = 18.0
	TransitWait     = 6 * time.Minute
	MinTravel       = 5 * time.Minute
)

// DistanceKm returns the great-circle distance between two points.
func DistanceKm(a, b types.Point) float64 {
	return haversineKm(a.Lat, a.Lng, b.Lat, b.Lng)
}

// haversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Centroid is the mean latitude/longitude of the valid points. The second
// return value is false when no point is valid.
func Centroid(points []types.Point) (types.Point, bool) {
	var lat, lng float64
	n := 0
	for _, p := range points {
		if !p.Valid() {
			continue
		}
		lat += p.Lat
		lng += p.Lng
		n++
	}
	if n == 0 {
		return types.Point{}, false
	}
	return types.Point{Lat: lat / float64(n), Lng: lng / float64(n)}, true
}

// PathKm sums consecutive legs of an open path.
func PathKm(points []types.Point) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += DistanceKm(points[i-1], points[i])
	}
	return total
}

// Percentile reads the p-th percentile (0..100) of an ascending slice using
// the nearest-rank method. An empty slice yields 0.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	rank := int(math.Ceil(p / 100 * float64(n)))
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}
	return sorted[rank-1]
}

// EstimateTravel converts a straight-line distance into a door-to-door time:
// walking for short hops, transit plus a fixed wait beyond that.
func EstimateTravel(km float64) time.Duration {
	if km <= 0.05 {
		return 0
	}
	var d time.Duration
	if km <= WalkMaxKm {
		d = time.Duration(km / WalkSpeedKmh * float64(time.Hour))
	} else {
		d = time.Duration(km/TransitSpeedKmh*float64(time.Hour)) + TransitWait
	}
	d = d.Round(time.Minute)
	if d < MinTravel {
		d = MinTravel
	}
	return d
}

// TravelBetween is EstimateTravel for two points; unknown coordinates cost MinTravel.
func TravelBetween(a, b types.Point) time.Duration {
	if !a.Valid() || !b.Valid() {
		return MinTravel
	}
	return EstimateTravel(DistanceKm(a, b))
}

// SortByDistance performs an insertion sort (fine for small N) on any slice
// where each element exposes a distance via the accessor function. Equal
// distances keep their input order.
func SortByDistance[T any](items []T, dist func(T) float64) {
	for i := 1; i < len(items); i++ {
		key := items[i]
		j := i - 1
		for j >= 0 && dist(items[j]) > dist(key) {
			items[j+1] = items[j]
			j--
		}
		items[j+1] = key
	}
}
