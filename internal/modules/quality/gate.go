// README: QualityGate; scores an assembled trip, auto-fixes duplicate meals and attaches geo diagnostics. It never blocks delivery.
package quality

import (
	"fmt"
	"strings"

	"wayfarer/internal/geo"
	"wayfarer/internal/obs"
	"wayfarer/internal/types"
)

const (
	penaltyHardLongLeg   = 8
	penaltyLongLegExcess = 4
	penaltyImpossible    = 7
	penaltyUnverified    = 5
	penaltyFarRestaurant = 3
	penaltyDuplicateMeal = 5
	penaltyEmptyDay      = 8
	penaltyNullCoords    = 2
	penaltyLongGap       = 2
	penaltyFarHotel      = 5
)

type Config struct {
	StrictGeoChecks   bool    `yaml:"strict_geo_checks"`
	HardLegKm         float64 `yaml:"hard_leg_km"`
	LongLegKm         float64 `yaml:"long_leg_km"`
	ImpossibleKm      float64 `yaml:"impossible_km"`
	ImpossibleGapMin  int     `yaml:"impossible_gap_min"`
	MaxSpeedKmh       float64 `yaml:"max_speed_kmh"`
	ReportedTrustKm   float64 `yaml:"reported_trust_km"`
	RestaurantReachKm float64 `yaml:"restaurant_reach_km"`
	MaxGapMin         int     `yaml:"max_gap_min"`
	HotelReachKm      float64 `yaml:"hotel_reach_km"`
}

func DefaultConfig() Config {
	return Config{
		StrictGeoChecks:   true,
		HardLegKm:         4,
		LongLegKm:         2.5,
		ImpossibleKm:      1.5,
		ImpossibleGapMin:  15,
		MaxSpeedKmh:       65,
		ReportedTrustKm:   0.75,
		RestaurantReachKm: 3,
		MaxGapMin:         180,
		HotelReachKm:      5,
	}
}

// Context is trip-level data the checks need besides the days themselves.
type Context struct {
	Accommodation *types.Accommodation
}

type Gate struct {
	cfg  Config
	emit obs.Emitter
}

func NewGate(cfg Config, emit obs.Emitter) *Gate {
	return &Gate{cfg: cfg, emit: obs.OrNop(emit)}
}

// report accumulates penalties and messages for one run.
type report struct {
	penalty  int
	warnings []string
	fixes    []string
}

func (r *report) warn(points int, format string, args ...any) {
	r.penalty += points
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// Validate scores days and returns them with duplicates removed and
// GeoDiagnostics filled in. The input slice is not modified.
func (g *Gate) Validate(days []types.TripDay, ctx Context) (types.ValidationResult, []types.TripDay) {
	r := &report{}
	out := make([]types.TripDay, len(days))
	for i, d := range days {
		out[i] = g.dedupeMeals(d.Clone(), r)
	}

	for i := range out {
		d := &out[i]
		d.GeoDiagnostics = Diagnose(*d, g.cfg.ReportedTrustKm)
		g.checkLegs(*d, r)
		g.checkItems(*d, r)
	}
	g.checkHotel(out, ctx, r)

	score := max(0, 100-r.penalty)
	return types.ValidationResult{
		Score:     score,
		Warnings:  nonNil(r.warnings),
		AutoFixes: nonNil(r.fixes),
	}, out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// mealTypeOf reads the meal type from the item, falling back to the title
// prefix ("Lunch — Izuju").
func mealTypeOf(it types.TripItem) types.MealType {
	if it.MealType != "" {
		return it.MealType
	}
	head, _, _ := strings.Cut(strings.TrimSpace(it.Title), " ")
	switch mt := types.MealType(strings.ToLower(strings.TrimRight(head, ":"))); mt {
	case types.MealBreakfast, types.MealLunch, types.MealDinner:
		return mt
	}
	return ""
}

// dedupeMeals keeps the first restaurant per meal type and re-indexes the day.
func (g *Gate) dedupeMeals(d types.TripDay, r *report) types.TripDay {
	seen := make(map[types.MealType]bool)
	kept := d.Items[:0]
	for _, it := range d.Items {
		if it.Type == types.ItemRestaurant {
			if mt := mealTypeOf(it); mt != "" {
				if seen[mt] {
					r.warn(penaltyDuplicateMeal, "day %d: duplicate %s restaurant %q", d.DayNumber, mt, it.Title)
					r.fixes = append(r.fixes, fmt.Sprintf("day %d: removed duplicate %s %q", d.DayNumber, mt, it.Title))
					g.emit.Emit(obs.Event{Kind: obs.KindAutoFix, Day: d.DayNumber, Candidate: it.CandidateID, Reason: "duplicate " + string(mt)})
					continue
				}
				seen[mt] = true
			}
		}
		kept = append(kept, it)
	}
	d.Items = kept
	for i := range d.Items {
		d.Items[i].OrderIndex = i
	}
	return d
}

func (g *Gate) checkLegs(d types.TripDay, r *report) {
	long := 0
	for _, l := range Legs(d, g.cfg.ReportedTrustKm) {
		if g.cfg.StrictGeoChecks && !d.DayTrip {
			if l.DirectKm > g.cfg.HardLegKm {
				r.warn(penaltyHardLongLeg, "day %d: %.1f km leg from %q to %q", d.DayNumber, l.DirectKm, l.From.Title, l.To.Title)
			}
			if l.DirectKm > g.cfg.LongLegKm {
				long++
			}
		}
		tooFast := l.DirectKm > g.cfg.ImpossibleKm && l.SpeedKmh > g.cfg.MaxSpeedKmh
		tooTight := l.DirectKm > g.cfg.HardLegKm && l.GapMin < g.cfg.ImpossibleGapMin
		if tooFast || tooTight {
			r.warn(penaltyImpossible, "day %d: %.1f km from %q to %q in %d min is not feasible", d.DayNumber, l.DirectKm, l.From.Title, l.To.Title, l.GapMin)
		}
	}
	if long > 1 {
		r.warn(penaltyLongLegExcess*(long-1), "day %d: %d legs longer than %.1f km", d.DayNumber, long, g.cfg.LongLegKm)
	}
}

func (g *Gate) checkItems(d types.TripDay, r *report) {
	var activities []types.Point
	count, transit := 0, false
	for _, it := range d.Items {
		switch it.Type {
		case types.ItemActivity:
			count++
			if it.Point().Valid() {
				activities = append(activities, it.Point())
			}
		case types.ItemTransport:
			transit = true
		}
	}
	if count == 0 && !transit {
		r.warn(penaltyEmptyDay, "day %d has no activities", d.DayNumber)
	}

	prevEnd := -1
	for _, it := range d.Items {
		if it.Type == types.ItemActivity || it.Type == types.ItemRestaurant {
			if it.Point().IsNull() {
				r.warn(penaltyNullCoords, "day %d: %q has no coordinates", d.DayNumber, it.Title)
			}
		}
		if it.Type == types.ItemRestaurant {
			g.checkRestaurant(d.DayNumber, it, activities, r)
		}

		start, okStart := minutesOf(it.StartTime)
		end, okEnd := minutesOf(it.EndTime)
		if okStart && prevEnd >= 0 && start-prevEnd > g.cfg.MaxGapMin {
			r.warn(penaltyLongGap, "day %d: %d min idle before %q", d.DayNumber, start-prevEnd, it.Title)
		}
		if okEnd && end > prevEnd {
			prevEnd = end
		}
	}
}

func (g *Gate) checkRestaurant(day int, it types.TripItem, activities []types.Point, r *report) {
	if it.DataReliability != types.ReliabilityVerified {
		r.warn(penaltyUnverified, "day %d: restaurant %q is not verified", day, it.Title)
	}
	if !it.Point().Valid() {
		return
	}
	nearest := -1.0
	for _, p := range activities {
		if km := geo.DistanceKm(it.Point(), p); nearest < 0 || km < nearest {
			nearest = km
		}
	}
	if nearest > g.cfg.RestaurantReachKm {
		r.warn(penaltyFarRestaurant, "day %d: restaurant %q is %.1f km from the nearest activity", day, it.Title, nearest)
	}
}

func (g *Gate) checkHotel(days []types.TripDay, ctx Context, r *report) {
	acc := ctx.Accommodation
	if acc == nil || !acc.Point().Valid() {
		return
	}
	var pts []types.Point
	for _, d := range days {
		for _, it := range d.Items {
			if it.Type == types.ItemActivity && it.Point().Valid() {
				pts = append(pts, it.Point())
			}
		}
	}
	center, ok := geo.Centroid(pts)
	if !ok {
		return
	}
	if km := geo.DistanceKm(acc.Point(), center); km > g.cfg.HotelReachKm {
		r.warn(penaltyFarHotel, "hotel %q is %.1f km from the centre of the activities", acc.Name, km)
	}
}
