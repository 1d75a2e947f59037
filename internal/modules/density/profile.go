// README: City density profile; turns the spread of candidate coordinates into an adaptive clustering radius.
package density

import (
	"math"
	"slices"

	"wayfarer/internal/geo"
	"wayfarer/internal/types"
)

type Class string

const (
	ClassDense  Class = "dense"
	ClassMedium Class = "medium"
	ClassSpread Class = "spread"
)

const (
	MinRadiusKm     = 0.5
	SoftCapKm       = 2.0 // roughly a 15-minute mixed walk/transit hop
	HardCapKm       = 5.0
	DefaultRadiusKm = 2.0

	denseMaxKm  = 0.8
	mediumMaxKm = 2.0
)

type Profile struct {
	RadiusKm float64 `json:"radiusKm"`
	P50Km    float64 `json:"p50Km"`
	P75Km    float64 `json:"p75Km"`
	Class    Class   `json:"class"`
	Samples  int     `json:"samples"`
}

// Default is used when there are too few coordinates to measure anything.
func Default() Profile {
	return Profile{RadiusKm: DefaultRadiusKm, Class: ClassMedium}
}

// Build profiles the candidate pool for a trip of numDays days.
func Build(candidates []types.Candidate, numDays int) Profile {
	pts := make([]types.Point, 0, len(candidates))
	for _, c := range candidates {
		if p := c.Point(); p.Valid() {
			pts = append(pts, p)
		}
	}
	if len(pts) < 2 {
		return Default()
	}

	dists := make([]float64, 0, len(pts)*(len(pts)-1)/2)
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			dists = append(dists, geo.DistanceKm(pts[i], pts[j]))
		}
	}
	slices.Sort(dists)

	p50 := geo.Percentile(dists, 50)
	p75 := geo.Percentile(dists, 75)

	// The hard ceiling bounds the raw spread used for classification; the
	// soft cap only bounds the radius handed to the clusterer.
	raw := clamp(p75/float64(max(1, numDays)), MinRadiusKm, HardCapKm)

	return Profile{
		RadiusKm: math.Min(raw, SoftCapKm),
		P50Km:    p50,
		P75Km:    p75,
		Class:    classify(raw),
		Samples:  len(pts),
	}
}

func classify(km float64) Class {
	switch {
	case km <= denseMaxKm:
		return ClassDense
	case km <= mediumMaxKm:
		return ClassMedium
	default:
		return ClassSpread
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
