// README: CapacityRebalancer; fits cluster sizes to the hours each day really has once transport is accounted for.
package capacity

import (
	"math"
	"slices"
	"time"

	"wayfarer/internal/modules/cluster"
	"wayfarer/internal/obs"
	"wayfarer/internal/types"
)

type Config struct {
	DefaultHours     float64 `yaml:"default_hours"`
	HoursPerActivity float64 `yaml:"hours_per_activity"`
	// Latest hour of the arrival day activities may run to.
	ArrivalDayEndHour float64 `yaml:"arrival_day_end_hour"`
	// Earliest useful start on the departure day.
	DepartureDayStartHour float64 `yaml:"departure_day_start_hour"`
}

func DefaultConfig() Config {
	return Config{
		DefaultHours:          12,
		HoursPerActivity:      1.5,
		ArrivalDayEndHour:     22,
		DepartureDayStartHour: 8,
	}
}

// Buffers around a transport leg, in hours.
type buffers struct {
	afterArrival    float64
	beforeDeparture float64
}

func buffersFor(leg *types.TransportLeg) buffers {
	if leg.IsFlight() {
		return buffers{afterArrival: 1.5, beforeDeparture: 3}
	}
	return buffers{afterArrival: 0.5, beforeDeparture: 1}
}

// Timing carries the legs that bound the trip. Either may be nil. Start is
// midnight of day 1; when zero, departure hours are read off the clock.
type Timing struct {
	NumDays  int
	Start    time.Time
	Inbound  *types.TransportLeg
	Outbound *types.TransportLeg
}

// departureHour is the departure measured from midnight of the last day, so a
// red-eye at 00:30 counts as 24.5.
func (t Timing) departureHour(dep time.Time) float64 {
	last := types.Midnight(dep)
	if !t.Start.IsZero() {
		last = t.Start.AddDate(0, 0, max(t.NumDays, 1)-1)
	} else if dep.Sub(last) < types.OvernightGrace {
		last = last.AddDate(0, 0, -1)
	}
	return dep.Sub(last).Hours()
}

type DayCapacity struct {
	DayNumber      int     `json:"dayNumber"`
	AvailableHours float64 `json:"availableHours"`
	MaxPerDay      int     `json:"maxPerDay"`
	Assigned       int     `json:"assigned"`
}

type Report struct {
	Days    []DayCapacity `json:"days"`
	Moved   int           `json:"moved"`
	Dropped []types.ID    `json:"dropped,omitempty"`
}

type Rebalancer struct {
	cfg  Config
	emit obs.Emitter
}

func NewRebalancer(cfg Config, emit obs.Emitter) *Rebalancer {
	def := DefaultConfig()
	if cfg.DefaultHours <= 0 {
		cfg.DefaultHours = def.DefaultHours
	}
	if cfg.HoursPerActivity <= 0 {
		cfg.HoursPerActivity = def.HoursPerActivity
	}
	if cfg.ArrivalDayEndHour <= 0 {
		cfg.ArrivalDayEndHour = def.ArrivalDayEndHour
	}
	if cfg.DepartureDayStartHour <= 0 {
		cfg.DepartureDayStartHour = def.DepartureDayStartHour
	}
	return &Rebalancer{cfg: cfg, emit: obs.OrNop(emit)}
}

// AvailableHours returns the usable hours of day (1-based) under t.
func (r *Rebalancer) AvailableHours(day int, t Timing) float64 {
	hours := r.cfg.DefaultHours
	if day == 1 && t.Inbound != nil {
		if arr, ok := t.Inbound.Arrival(); ok {
			b := buffersFor(t.Inbound)
			hours = math.Min(hours, math.Max(0, r.cfg.ArrivalDayEndHour-(hourOf(arr)+b.afterArrival)))
		}
	}
	if day == max(t.NumDays, 1) && t.Outbound != nil {
		if dep, ok := t.Outbound.Departure(); ok {
			b := buffersFor(t.Outbound)
			hours = math.Min(hours, math.Max(0, t.departureHour(dep)-b.beforeDeparture-r.cfg.DepartureDayStartHour))
		}
	}
	return hours
}

// MaxPerDay converts hours into an activity budget.
func (r *Rebalancer) MaxPerDay(hours float64) int {
	return int(math.Floor(hours / r.cfg.HoursPerActivity))
}

// Rebalance returns a copy of clusters, padded to one cluster per trip day,
// with candidates moved away from days that cannot hold them.
func (r *Rebalancer) Rebalance(clusters []cluster.Cluster, t Timing) ([]cluster.Cluster, Report) {
	days := pad(clusters, t.NumDays)
	t.NumDays = len(days)

	caps := make([]int, len(days))
	report := Report{Days: make([]DayCapacity, len(days))}
	for i := range days {
		hours := r.AvailableHours(days[i].DayNumber, t)
		caps[i] = r.MaxPerDay(hours)
		report.Days[i] = DayCapacity{DayNumber: days[i].DayNumber, AvailableHours: hours, MaxPerDay: caps[i]}
	}
	touched := make([]bool, len(days))

	// Pass 1: empty days that have no room at all.
	for i := range days {
		if days[i].DayTrip || caps[i] > 0 {
			continue
		}
		for len(days[i].Members) > 0 {
			m := days[i].Members[0]
			days[i].Members = days[i].Members[1:]
			touched[i] = true
			dst := receiver(days, caps, i)
			if dst < 0 {
				report.Dropped = append(report.Dropped, m.ID)
				r.emit.Emit(obs.Event{Kind: obs.KindCandidateDropped, Day: days[i].DayNumber, Candidate: m.ID, Reason: "no capacity on any day"})
				continue
			}
			days[dst].Members = append(days[dst].Members, m)
			touched[dst] = true
			report.Moved++
			r.emit.Emit(obs.Event{Kind: obs.KindCandidateMoved, Day: days[dst].DayNumber, Candidate: m.ID, Reason: "zero capacity"})
		}
	}

	// Pass 2: trim over-budget days from their least important end.
	for i := range days {
		if days[i].DayTrip {
			continue
		}
		for len(days[i].Members) > caps[i] {
			dst := receiver(days, caps, i)
			if dst < 0 {
				break
			}
			k := lastMovable(days[i].Members)
			m := days[i].Members[k]
			days[i].Members = slices.Delete(days[i].Members, k, k+1)
			days[dst].Members = append(days[dst].Members, m)
			touched[i], touched[dst] = true, true
			report.Moved++
			r.emit.Emit(obs.Event{Kind: obs.KindCandidateMoved, Day: days[dst].DayNumber, Candidate: m.ID, Reason: "over budget"})
		}
	}

	for i := range days {
		if touched[i] {
			days[i].Members = cluster.OrderVisits(days[i].Members)
		}
		days[i].Refresh()
		report.Days[i].Assigned = len(days[i].Members)
	}
	return days, report
}

// receiver picks the non-day-trip day with the most remaining capacity,
// lower day first on ties. It returns -1 when nobody has room.
func receiver(days []cluster.Cluster, caps []int, skip int) int {
	best, bestRoom := -1, 0
	for i := range days {
		if i == skip || days[i].DayTrip {
			continue
		}
		room := caps[i] - len(days[i].Members)
		if room > bestRoom {
			best, bestRoom = i, room
		}
	}
	return best
}

// lastMovable prefers the last-ordered member that is not a must-see.
func lastMovable(members []types.Candidate) int {
	for k := len(members) - 1; k >= 0; k-- {
		if !members[k].MustSee {
			return k
		}
	}
	return len(members) - 1
}

// pad copies clusters into one slot per day 1..numDays. Clusters with a
// missing or duplicate day number fill the first free slots.
func pad(clusters []cluster.Cluster, numDays int) []cluster.Cluster {
	numDays = max(numDays, len(clusters))
	out := make([]cluster.Cluster, numDays)
	filled := make([]bool, numDays)
	var loose []cluster.Cluster
	for _, c := range clusters {
		d := c.DayNumber
		if d >= 1 && d <= numDays && !filled[d-1] {
			out[d-1] = c.Clone()
			filled[d-1] = true
			continue
		}
		loose = append(loose, c.Clone())
	}
	for i := range out {
		if filled[i] {
			continue
		}
		if len(loose) > 0 {
			out[i], loose = loose[0], loose[1:]
		}
		out[i].DayNumber = i + 1
	}
	return out
}

func hourOf(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60
}
