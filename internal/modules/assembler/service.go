// README: ScheduleAssembler; drives the DayScheduler through logistics, meals and clustered activities for each day.
package assembler

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"wayfarer/internal/geo"
	"wayfarer/internal/modules/cluster"
	"wayfarer/internal/modules/scheduler"
	"wayfarer/internal/obs"
	"wayfarer/internal/types"
)

// itemSpace namespaces the name-based item ids, so identical trips get
// identical ids.
var itemSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("wayfarer:trip-item"))

type Assembler struct {
	cfg  Config
	emit obs.Emitter
}

func NewAssembler(cfg Config, emit obs.Emitter) *Assembler {
	return &Assembler{cfg: cfg, emit: obs.OrNop(emit)}
}

// Assemble lays out every day in order, sharing used across days.
func (a *Assembler) Assemble(in TripInput, used *UsedSet) []types.TripDay {
	n := max(in.NumDays, len(in.Clusters), 1)
	days := make([]types.TripDay, 0, n)
	for d := 1; d <= n; d++ {
		days = append(days, a.AssembleDay(in, d, used))
	}
	return days
}

// dayPlan is the working state of one day while it is being assembled.
type dayPlan struct {
	a       *Assembler
	in      TripInput
	num     int
	date    time.Time
	cluster cluster.Cluster
	sched   *scheduler.DayScheduler
	used    *UsedSet
	pos     types.Point
	claimed []types.ID
	meals   map[types.MealType]bool
	// ready is when the traveller is free after arriving; zero if not an arrival day.
	ready time.Time
	seq   int
}

// newID derives the next item id from the day and what the item is.
func (p *dayPlan) newID(key string) string {
	p.seq++
	name := fmt.Sprintf("%s|%d|%d|%s", p.date.Format(time.DateOnly), p.num, p.seq, key)
	return uuid.NewSHA1(itemSpace, []byte(name)).String()
}

// AssembleDay lays out day num (1-based). Days may be assembled
// concurrently as long as they share the same UsedSet.
func (a *Assembler) AssembleDay(in TripInput, num int, used *UsedSet) types.TripDay {
	totalDays := max(in.NumDays, len(in.Clusters), 1)
	date := types.Midnight(in.StartDate).AddDate(0, 0, num-1)
	p := &dayPlan{
		a:       a,
		in:      in,
		num:     num,
		date:    date,
		cluster: clusterFor(in.Clusters, num),
		used:    used,
		meals:   make(map[types.MealType]bool),
	}
	p.pos = p.homePoint()

	startOff, endOff := dayBounds(in.Pacing)
	dayEnd := date.Add(endOff)

	var dep *departure
	if num == totalDays && in.Outbound != nil {
		dep = p.planDeparture()
		if dep != nil && dep.transferStart.Before(dayEnd) {
			dayEnd = dep.transferStart
		}
	}
	p.sched = scheduler.New(date, startOff, dayEnd.Sub(date))

	// Fixed commitments go in before anything flexible is attempted.
	if num == 1 {
		p.placeArrival()
	}
	if dep != nil {
		p.placeDeparture(dep)
	} else if num == totalDays && in.Accommodation != nil {
		p.placeCheckOut(date.Add(types.ClockOr(in.Accommodation.CheckOutTime, a.cfg.DefaultCheckOut)))
	}

	if p.sched.Cursor().Before(date.Add(a.cfg.Breakfast.window.end)) {
		p.addMeal(a.cfg.Breakfast)
	}

	for _, m := range p.cluster.Members {
		travel := geo.TravelBetween(p.pos, m.Point())
		p.serveMeals(p.sched.Cursor().Add(travel + m.Duration()))
		p.addCandidate(m, time.Time{})
	}
	p.fillGaps()
	p.finishMeals()

	return p.finish()
}

func clusterFor(clusters []cluster.Cluster, day int) cluster.Cluster {
	for _, c := range clusters {
		if c.DayNumber == day {
			return c
		}
	}
	return cluster.Cluster{DayNumber: day}
}

// homePoint is where the day starts: the lodging, else the cluster centroid.
func (p *dayPlan) homePoint() types.Point {
	if acc := p.in.Accommodation; acc != nil && acc.Point().Valid() {
		return acc.Point()
	}
	return p.cluster.Centroid
}

// addCandidate claims m for this day and schedules it, undoing the claim if
// it cannot be placed. A non-zero until caps the visit's end.
func (p *dayPlan) addCandidate(m types.Candidate, until time.Time) bool {
	win, open := m.OpeningHours.On(p.date.Weekday())
	if !open {
		p.skip(m.ID, "closed")
		return false
	}
	if !p.used.TryClaim(m.ID, p.num) {
		reason := "already scheduled"
		if d, ok := p.used.DayOf(m.ID); ok {
			reason = fmt.Sprintf("already scheduled on day %d", d)
		}
		p.skip(m.ID, reason)
		return false
	}

	item := scheduler.Item{
		ID:         p.newID(string(m.ID)),
		Title:      m.Name,
		Type:       types.ItemActivity,
		Duration:   m.Duration(),
		TravelTime: geo.TravelBetween(p.pos, m.Point()),
		Payload: stop{
			point:       m.Point(),
			cost:        m.EstimatedCost,
			reliability: candidateReliability(m),
			candidateID: m.ID,
		},
	}
	if o, c, ok := win.Bounds(); ok {
		item.MinStart = p.date.Add(o)
		item.MaxEnd = p.date.Add(c - p.a.cfg.ClosingMargin)
	}
	if !until.IsZero() && (item.MaxEnd.IsZero() || until.Before(item.MaxEnd)) {
		item.MaxEnd = until
	}

	if p.sched.AddItem(item) == nil {
		p.used.Release(m.ID)
		p.skip(m.ID, "does not fit")
		return false
	}
	if m.Point().Valid() {
		p.pos = m.Point()
	}
	p.claimed = append(p.claimed, m.ID)
	return true
}

func candidateReliability(m types.Candidate) types.Reliability {
	switch {
	case !m.Point().Valid():
		return types.ReliabilityGenerated
	case m.ReviewCount > 0:
		return types.ReliabilityVerified
	default:
		return types.ReliabilityEstimated
	}
}

// fillGaps pulls extra unused candidates from the whole trip pool near the
// current position while an idle stretch of at least GapFillMinIdle remains.
// When nothing fits before an upcoming meal, the meal is served and filling
// continues after it.
func (p *dayPlan) fillGaps() {
	for extras := 0; extras < p.a.cfg.GapFillMax; {
		limit, meal := p.nextBoundary()
		if limit.Sub(p.sched.Cursor()) >= p.a.cfg.GapFillMinIdle && p.fillOne(limit) {
			extras++
			continue
		}
		if meal == nil {
			return
		}
		p.addMeal(*meal)
	}
}

// fillOne schedules the nearest unused pool candidate that ends by limit.
func (p *dayPlan) fillOne(limit time.Time) bool {
	for _, c := range p.nearbyUnused() {
		if p.addCandidate(c, limit) {
			return true
		}
	}
	return false
}

// nextBoundary is the earliest of the next placed item, the day end and the
// opening of a meal window not yet attempted. meal is set in the last case.
func (p *dayPlan) nextBoundary() (time.Time, *mealSlot) {
	limit := p.sched.NextBoundary()
	var meal *mealSlot
	for _, slot := range []mealSlot{p.a.cfg.Lunch, p.a.cfg.Dinner} {
		if p.meals[slot.meal] {
			continue
		}
		open := p.date.Add(slot.window.start)
		if open.After(p.sched.Cursor()) && open.Before(limit) {
			s := slot
			limit, meal = open, &s
		}
	}
	return limit, meal
}

// nearbyUnused lists unclaimed pool candidates within GapFillRadiusKm of the
// current position, nearest first with ties broken by id.
func (p *dayPlan) nearbyUnused() []types.Candidate {
	if !p.pos.Valid() {
		return nil
	}
	var out []types.Candidate
	for _, c := range p.in.Pool {
		if !c.Point().Valid() || p.used.Has(c.ID) {
			continue
		}
		if geo.DistanceKm(p.pos, c.Point()) <= p.a.cfg.GapFillRadiusKm {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b types.Candidate) int { return strings.Compare(string(a.ID), string(b.ID)) })
	geo.SortByDistance(out, func(c types.Candidate) float64 { return geo.DistanceKm(p.pos, c.Point()) })
	return out
}

func (p *dayPlan) skip(id types.ID, reason string) {
	p.a.emit.Emit(obs.Event{Kind: obs.KindItemSkipped, Day: p.num, Candidate: id, Reason: reason})
}

// finish resolves conflicts, releases claims that did not survive and
// converts the schedule into trip items.
func (p *dayPlan) finish() types.TripDay {
	if !p.ready.IsZero() {
		if n := p.sched.RemoveItemsBefore(p.ready, types.LogisticsTypes...); n > 0 {
			p.a.emit.Emit(obs.Event{Kind: obs.KindConflictResolved, Day: p.num, Reason: "before arrival", Value: float64(n)})
		}
	}
	if n := p.sched.RemoveConflicts(); n > 0 {
		p.a.emit.Emit(obs.Event{Kind: obs.KindConflictResolved, Day: p.num, Reason: "overlap", Value: float64(n)})
	}
	if ok, conflicts := p.sched.Validate(); !ok {
		for _, c := range conflicts {
			p.a.emit.Emit(obs.Event{Kind: obs.KindScheduleDefect, Day: p.num, Reason: c.A.Title + " overlaps " + c.B.Title})
		}
	}

	items := p.sched.Items()
	scheduled := make(map[types.ID]bool, len(items))
	out := make([]types.TripItem, 0, len(items))
	for i, it := range items {
		st, _ := it.Payload.(stop)
		if st.candidateID != "" {
			scheduled[st.candidateID] = true
		}
		out = append(out, types.TripItem{
			ID:              it.ID,
			CandidateID:     st.candidateID,
			DayNumber:       p.num,
			StartTime:       types.FormatClock(p.date, it.Start),
			EndTime:         types.FormatClock(p.date, it.End),
			Type:            it.Type,
			Title:           it.Title,
			Lat:             st.point.Lat,
			Lng:             st.point.Lng,
			EstimatedCost:   st.cost,
			OrderIndex:      i,
			DataReliability: st.reliability,
			MealType:        st.mealType,
			HotelProvided:   st.hotelProvided,
		})
	}
	for _, id := range p.claimed {
		if !scheduled[id] {
			p.used.Release(id)
		}
	}

	return types.TripDay{
		DayNumber: p.num,
		Date:      p.date.Format(time.DateOnly),
		Theme:     p.cluster.Theme,
		DayTrip:   p.cluster.DayTrip,
		Items:     out,
	}
}
