package quality

import (
	"math"
	"slices"
	"time"

	"wayfarer/internal/geo"
	"wayfarer/internal/types"
)

// Leg is the hop between two consecutive route items of one day.
type Leg struct {
	From, To  types.TripItem
	DirectKm  float64
	TravelMin int
	GapMin    int
	Reported  bool
	SpeedKmh  float64
}

// RouteStops returns the indexes of the stops a traveller actually moves
// between: logistics, hotel-provided meals and items without coordinates are
// left out.
func RouteStops(items []types.TripItem) []int {
	var out []int
	for i, it := range items {
		if it.Type.Logistics() || it.HotelProvided || !it.Point().Valid() {
			continue
		}
		out = append(out, i)
	}
	return out
}

func routeItems(items []types.TripItem) []types.TripItem {
	idx := RouteStops(items)
	out := make([]types.TripItem, len(idx))
	for i, j := range idx {
		out[i] = items[j]
	}
	return out
}

func minutesOf(clock string) (int, bool) {
	d, err := types.ParseClock(clock)
	if err != nil {
		return 0, false
	}
	return int(d / time.Minute), true
}

// Legs computes leg metrics for one day. A reported distance is trusted only
// within trustKm of the direct distance; otherwise travel time is estimated.
func Legs(day types.TripDay, trustKm float64) []Leg {
	stops := routeItems(day.Items)
	if len(stops) < 2 {
		return nil
	}
	legs := make([]Leg, 0, len(stops)-1)
	for i := 1; i < len(stops); i++ {
		from, to := stops[i-1], stops[i]
		l := Leg{From: from, To: to, DirectKm: geo.DistanceKm(from.Point(), to.Point())}

		if to.TravelMin > 0 && to.TravelKm > 0 && math.Abs(to.TravelKm-l.DirectKm) <= trustKm {
			l.TravelMin, l.Reported = to.TravelMin, true
		} else {
			l.TravelMin = int(geo.EstimateTravel(l.DirectKm) / time.Minute)
		}

		end, okEnd := minutesOf(from.EndTime)
		start, okStart := minutesOf(to.StartTime)
		if okEnd && okStart {
			l.GapMin = start - end
		}
		switch {
		case l.GapMin > 0:
			l.SpeedKmh = l.DirectKm / (float64(l.GapMin) / 60)
		case l.DirectKm > 0:
			l.SpeedKmh = math.Inf(1)
		}
		legs = append(legs, l)
	}
	return legs
}

// Diagnose summarises a day's legs.
func Diagnose(day types.TripDay, trustKm float64) types.GeoDiagnostics {
	legs := Legs(day, trustKm)
	if len(legs) == 0 {
		return types.GeoDiagnostics{}
	}
	kms := make([]float64, len(legs))
	total := 0
	for i, l := range legs {
		kms[i] = l.DirectKm
		total += l.TravelMin
	}
	slices.Sort(kms)
	return types.GeoDiagnostics{
		MaxLegKm:       round2(kms[len(kms)-1]),
		P95LegKm:       round2(geo.Percentile(kms, 95)),
		TotalTravelMin: total,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
