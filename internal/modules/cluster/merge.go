package cluster

import (
	"math"

	"wayfarer/internal/geo"
	"wayfarer/internal/obs"
	"wayfarer/internal/types"
)

// phase is one pass of the merge loop. A zero factor means the radius
// constraint is dropped entirely, which guarantees the target is reached.
type phase struct {
	name   string
	factor float64
}

var mergePhases = []phase{
	{name: "strict", factor: 1},
	{name: "relaxed", factor: 1.5},
	{name: "unconstrained", factor: 0},
}

// group holds indexes into the point slice being clustered.
type group []int

// agglomerate runs average-linkage merging over pts until target groups
// remain, relaxing the radius through mergePhases when a phase stalls.
func (c *Clusterer) agglomerate(pts []types.Point, target int, radius float64) []group {
	if target < 1 {
		target = 1
	}
	groups := make([]group, len(pts))
	for i := range pts {
		groups[i] = group{i}
	}
	dist := distanceMatrix(pts)

	for i, ph := range mergePhases {
		limit := radius * ph.factor
		for len(groups) > target {
			next, ok := tryMerge(groups, pts, dist, limit)
			if !ok {
				break
			}
			groups = next
		}
		if len(groups) <= target || i+1 == len(mergePhases) {
			break
		}
		nextPhase := mergePhases[i+1]
		c.emit.Emit(obs.Event{Kind: obs.KindRadiusRelaxed, Reason: nextPhase.name, Value: radius * nextPhase.factor})
	}
	return groups
}

// tryMerge performs the single best average-linkage merge whose result keeps
// every member within maxRadius of the merged centroid. maxRadius <= 0 means
// unconstrained. It reports false and returns groups unchanged when no merge
// is admissible. Ties go to the earliest pair.
func tryMerge(groups []group, pts []types.Point, dist [][]float64, maxRadius float64) ([]group, bool) {
	best := math.Inf(1)
	bi, bj := -1, -1
	for i := 0; i < len(groups); i++ {
		for j := i + 1; j < len(groups); j++ {
			d := averageLinkage(groups[i], groups[j], dist)
			if d >= best {
				continue
			}
			if maxRadius > 0 && unionRadius(groups[i], groups[j], pts) > maxRadius {
				continue
			}
			best, bi, bj = d, i, j
		}
	}
	if bi < 0 {
		return groups, false
	}

	merged := make(group, 0, len(groups[bi])+len(groups[bj]))
	merged = append(merged, groups[bi]...)
	merged = append(merged, groups[bj]...)

	next := make([]group, 0, len(groups)-1)
	for k, g := range groups {
		switch k {
		case bi:
			next = append(next, merged)
		case bj:
		default:
			next = append(next, g)
		}
	}
	return next, true
}

func averageLinkage(a, b group, dist [][]float64) float64 {
	sum := 0.0
	for _, i := range a {
		for _, j := range b {
			sum += dist[i][j]
		}
	}
	return sum / float64(len(a)*len(b))
}

func unionRadius(a, b group, pts []types.Point) float64 {
	members := make([]types.Point, 0, len(a)+len(b))
	for _, i := range a {
		members = append(members, pts[i])
	}
	for _, i := range b {
		members = append(members, pts[i])
	}
	center, _ := geo.Centroid(members)
	return radiusKm(center, members)
}

func distanceMatrix(pts []types.Point) [][]float64 {
	dist := make([][]float64, len(pts))
	for i := range dist {
		dist[i] = make([]float64, len(pts))
	}
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			d := geo.DistanceKm(pts[i], pts[j])
			dist[i][j], dist[j][i] = d, d
		}
	}
	return dist
}
