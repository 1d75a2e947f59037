package cluster

import (
	"math"
	"slices"

	"wayfarer/internal/geo"
	"wayfarer/internal/types"
)

// MinImprovementKm is the smallest gain for which 2-opt reverses a segment.
const MinImprovementKm = 0.01

// NearestNeighborTour visits every point once starting at start, always
// stepping to the closest unvisited point. Ties go to the lower index.
func NearestNeighborTour(pts []types.Point, start int) []int {
	n := len(pts)
	if n == 0 {
		return nil
	}
	visited := make([]bool, n)
	order := make([]int, 0, n)
	cur := start
	visited[cur] = true
	order = append(order, cur)
	for len(order) < n {
		next, best := -1, math.Inf(1)
		for i := 0; i < n; i++ {
			if visited[i] {
				continue
			}
			if d := geo.DistanceKm(pts[cur], pts[i]); d < best {
				next, best = i, d
			}
		}
		visited[next] = true
		order = append(order, next)
		cur = next
	}
	return order
}

// TwoOpt improves an open path by reversing sub-segments while any reversal
// shortens it by more than MinImprovementKm. The first stop never moves.
func TwoOpt(pts []types.Point, order []int) []int {
	best := append([]int(nil), order...)
	n := len(best)
	if n < 3 {
		return best
	}
	for improved := true; improved; {
		improved = false
		for i := 1; i < n-1; i++ {
			for k := i + 1; k < n; k++ {
				a, b, c := pts[best[i-1]], pts[best[i]], pts[best[k]]
				delta := geo.DistanceKm(a, c) - geo.DistanceKm(a, b)
				if k+1 < n {
					d := pts[best[k+1]]
					delta += geo.DistanceKm(b, d) - geo.DistanceKm(c, d)
				}
				if delta < -MinImprovementKm {
					slices.Reverse(best[i : k+1])
					improved = true
				}
			}
		}
	}
	return best
}

// TourKm is the open-path length of pts visited in order.
func TourKm(pts []types.Point, order []int) float64 {
	total := 0.0
	for i := 1; i < len(order); i++ {
		total += geo.DistanceKm(pts[order[i-1]], pts[order[i]])
	}
	return total
}

// OrderVisits returns members in walking order: the highest-priority member
// first, then a nearest-neighbour tour refined by 2-opt. Members without
// usable coordinates trail in priority order.
func OrderVisits(members []types.Candidate) []types.Candidate {
	sorted := append([]types.Candidate(nil), members...)
	slices.SortStableFunc(sorted, types.ComparePriority)

	routable := make([]types.Candidate, 0, len(sorted))
	var unroutable []types.Candidate
	for _, m := range sorted {
		if m.Point().Valid() {
			routable = append(routable, m)
		} else {
			unroutable = append(unroutable, m)
		}
	}
	if len(routable) < 3 {
		return append(routable, unroutable...)
	}

	pts := make([]types.Point, len(routable))
	for i, m := range routable {
		pts[i] = m.Point()
	}
	order := TwoOpt(pts, NearestNeighborTour(pts, 0))

	out := make([]types.Candidate, 0, len(sorted))
	for _, idx := range order {
		out = append(out, routable[idx])
	}
	return append(out, unroutable...)
}

// OrderDays sequences clusters by a nearest-neighbour walk over centroids
// from origin, splices day-trip clusters into the middle and renumbers days
// from 1.
func OrderDays(clusters []Cluster, origin types.Point) []Cluster {
	var city, trips []Cluster
	for _, c := range clusters {
		if c.DayTrip {
			trips = append(trips, c)
		} else {
			city = append(city, c)
		}
	}

	ordered := make([]Cluster, 0, len(clusters))
	used := make([]bool, len(city))
	cur, haveCur := origin, origin.Valid()
	for len(ordered) < len(city) {
		next, best := -1, math.Inf(1)
		for i, c := range city {
			if used[i] {
				continue
			}
			d := math.Inf(1)
			if haveCur && c.Centroid.Valid() {
				d = geo.DistanceKm(cur, c.Centroid)
			}
			if next < 0 || d < best {
				next, best = i, d
			}
		}
		used[next] = true
		ordered = append(ordered, city[next])
		if city[next].Centroid.Valid() {
			cur, haveCur = city[next].Centroid, true
		}
	}

	if len(trips) > 0 {
		mid := (len(ordered) + 1) / 2
		ordered = slices.Insert(ordered, mid, trips...)
	}
	for i := range ordered {
		ordered[i].DayNumber = i + 1
	}
	return ordered
}
