// README: GeoClusterer; partitions candidates into day clusters, balances them and orders visits and days.
package cluster

import (
	"math"
	"slices"
	"strings"

	"wayfarer/internal/geo"
	"wayfarer/internal/modules/density"
	"wayfarer/internal/obs"
	"wayfarer/internal/types"
)

type Config struct {
	// DayTripKm is the distance from the city center beyond which a
	// candidate belongs to the excursion day.
	DayTripKm float64 `yaml:"day_trip_km"`
	// MinDaysForDayTrip: day trips are only carved out when the trip is longer than this.
	MinDaysForDayTrip int     `yaml:"min_days_for_day_trip"`
	BalanceReach      float64 `yaml:"balance_reach"`
	MaxBalancePasses  int     `yaml:"max_balance_passes"`
}

func DefaultConfig() Config {
	return Config{
		DayTripKm:         30,
		MinDaysForDayTrip: 3,
		BalanceReach:      1.2,
		MaxBalancePasses:  10,
	}
}

type Clusterer struct {
	cfg  Config
	emit obs.Emitter
}

func NewClusterer(cfg Config, emit obs.Emitter) *Clusterer {
	def := DefaultConfig()
	if cfg.DayTripKm <= 0 {
		cfg.DayTripKm = def.DayTripKm
	}
	if cfg.MinDaysForDayTrip <= 0 {
		cfg.MinDaysForDayTrip = def.MinDaysForDayTrip
	}
	if cfg.BalanceReach <= 0 {
		cfg.BalanceReach = def.BalanceReach
	}
	if cfg.MaxBalancePasses <= 0 {
		cfg.MaxBalancePasses = def.MaxBalancePasses
	}
	return &Clusterer{cfg: cfg, emit: obs.OrNop(emit)}
}

// Cluster partitions candidates into day clusters, ordering days outward from center.
func (c *Clusterer) Cluster(candidates []types.Candidate, numDays int, center types.Point, profile *density.Profile) []Cluster {
	return c.ClusterFrom(candidates, numDays, center, center, profile)
}

// ClusterFrom is Cluster with a separate starting point for day ordering,
// typically the arrival airport or the lodging.
func (c *Clusterer) ClusterFrom(candidates []types.Candidate, numDays int, center, origin types.Point, profile *density.Profile) []Cluster {
	if len(candidates) == 0 {
		return nil
	}
	if numDays < 1 {
		numDays = 1
	}
	prof := density.Default()
	if profile != nil {
		prof = *profile
	}

	pool := append([]types.Candidate(nil), candidates...)
	slices.SortStableFunc(pool, func(a, b types.Candidate) int {
		return strings.Compare(string(a.ID), string(b.ID))
	})

	if len(pool) <= 4 || numDays <= 1 {
		single := Cluster{DayNumber: 1, Members: OrderVisits(pool)}
		single.Refresh()
		c.formed(single)
		return []Cluster{single}
	}

	var city, trip, stray []types.Candidate
	allowDayTrips := numDays > c.cfg.MinDaysForDayTrip && center.Valid()
	for _, cand := range pool {
		p := cand.Point()
		switch {
		case !p.Valid():
			stray = append(stray, cand)
		case allowDayTrips && geo.DistanceKm(center, p) > c.cfg.DayTripKm:
			trip = append(trip, cand)
		default:
			city = append(city, cand)
		}
	}

	target := numDays
	if len(trip) > 0 {
		target--
	}

	pts := make([]types.Point, len(city))
	for i, cand := range city {
		pts[i] = cand.Point()
	}
	groups := c.agglomerate(pts, target, prof.RadiusKm)

	clusters := make([]Cluster, 0, len(groups)+2)
	for _, g := range groups {
		members := make([]types.Candidate, len(g))
		for i, idx := range g {
			members[i] = city[idx]
		}
		cl := Cluster{Members: members}
		cl.Refresh()
		clusters = append(clusters, cl)
	}

	// Candidates without coordinates cannot be placed geographically; they
	// go to whichever city cluster is smallest so the pool stays partitioned.
	if len(stray) > 0 && len(clusters) == 0 {
		clusters = append(clusters, Cluster{})
	}
	for _, cand := range stray {
		i := smallest(clusters, -1)
		clusters[i].Members = append(clusters[i].Members, cand)
	}

	if len(trip) > 0 {
		dt := Cluster{Members: trip, DayTrip: true}
		dt.Refresh()
		clusters = append(clusters, dt)
	}

	c.balance(clusters, len(pool), numDays, prof.RadiusKm)

	for i := range clusters {
		clusters[i].Members = OrderVisits(clusters[i].Members)
		clusters[i].Refresh()
	}
	clusters = OrderDays(clusters, origin)
	for _, cl := range clusters {
		c.formed(cl)
	}
	return clusters
}

// balance moves the farthest non-mustSee member out of any oversized city
// cluster into the smallest city cluster within reach, for a bounded number
// of passes.
func (c *Clusterer) balance(clusters []Cluster, total, numDays int, radius float64) {
	maxSize := int(math.Ceil(float64(total)/float64(numDays))) + 1
	reach := radius * c.cfg.BalanceReach

	for pass := 0; pass < c.cfg.MaxBalancePasses; pass++ {
		moved := false
		for src := range clusters {
			if clusters[src].DayTrip || len(clusters[src].Members) <= maxSize {
				continue
			}
			if c.moveFarthest(clusters, src, reach) {
				moved = true
			}
		}
		if !moved {
			return
		}
	}
}

func (c *Clusterer) moveFarthest(clusters []Cluster, src int, reach float64) bool {
	from := &clusters[src]
	if !from.Centroid.Valid() {
		return false
	}

	var mover *types.Candidate
	farthest := -1.0
	for i := range from.Members {
		m := &from.Members[i]
		if m.MustSee || !m.Point().Valid() {
			continue
		}
		d := geo.DistanceKm(from.Centroid, m.Point())
		if d > farthest || (d == farthest && m.ID < mover.ID) {
			mover, farthest = m, d
		}
	}
	if mover == nil {
		return false
	}

	dst := -1
	for i := range clusters {
		to := clusters[i]
		if i == src || to.DayTrip || !to.Centroid.Valid() {
			continue
		}
		if len(to.Members)+1 >= len(from.Members) {
			continue
		}
		if geo.DistanceKm(mover.Point(), to.Centroid) > reach {
			continue
		}
		if dst < 0 || len(to.Members) < len(clusters[dst].Members) {
			dst = i
		}
	}
	if dst < 0 {
		return false
	}

	cand, _ := from.Remove(mover.ID)
	clusters[dst].Members = append(clusters[dst].Members, cand)
	clusters[dst].Refresh()
	c.emit.Emit(obs.Event{Kind: obs.KindCandidateMoved, Candidate: cand.ID, Reason: "balance"})
	return true
}

// smallest returns the index of the smallest non-day-trip cluster other than skip.
func smallest(clusters []Cluster, skip int) int {
	best := -1
	for i, cl := range clusters {
		if i == skip || cl.DayTrip {
			continue
		}
		if best < 0 || len(cl.Members) < len(clusters[best].Members) {
			best = i
		}
	}
	return best
}

func (c *Clusterer) formed(cl Cluster) {
	reason := "city"
	if cl.DayTrip {
		reason = "day_trip"
	}
	c.emit.Emit(obs.Event{Kind: obs.KindClusterFormed, Day: cl.DayNumber, Reason: reason, Value: float64(len(cl.Members))})
}
