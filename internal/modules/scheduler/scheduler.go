// README: DayScheduler; single-day time axis for fixed and flexible items. Placement failures are nil returns, never panics.
package scheduler

import (
	"slices"
	"time"

	"wayfarer/internal/types"
)

// Item is a slot on the day's time axis. Start/End form a half-open interval.
// MinStart and MaxEnd are optional (zero means unset).
type Item struct {
	ID         string
	Title      string
	Type       types.ItemType
	Start      time.Time
	End        time.Time
	Duration   time.Duration
	MinStart   time.Time
	MaxEnd     time.Time
	TravelTime time.Duration
	Payload    any

	fixed bool
	seq   int
}

func (it Item) Fixed() bool { return it.fixed }

func (it Item) overlaps(o *Item) bool {
	return it.Start.Before(o.End) && o.Start.Before(it.End)
}

// Conflict is a pair of placed items whose intervals intersect.
type Conflict struct {
	A, B Item
}

type DayScheduler struct {
	date   time.Time
	start  time.Time
	end    time.Time
	cursor time.Time
	items  []*Item
	seq    int
}

// New creates a scheduler for date (its midnight in date's location is used)
// covering dayStart..dayEnd, both offsets from midnight.
func New(date time.Time, dayStart, dayEnd time.Duration) *DayScheduler {
	midnight := types.Midnight(date)
	s := &DayScheduler{
		date:  midnight,
		start: midnight.Add(dayStart),
		end:   midnight.Add(dayEnd),
	}
	if s.end.Before(s.start) {
		s.end = s.start
	}
	s.cursor = s.start
	return s
}

func (s *DayScheduler) Date() time.Time   { return s.date }
func (s *DayScheduler) Start() time.Time  { return s.start }
func (s *DayScheduler) End() time.Time    { return s.end }
func (s *DayScheduler) Cursor() time.Time { return s.cursor }

// Remaining is the time between the cursor and the end bound.
func (s *DayScheduler) Remaining() time.Duration {
	if s.cursor.After(s.end) {
		return 0
	}
	return s.end.Sub(s.cursor)
}

// InsertFixedItem places item verbatim at [Start, End). End defaults to
// Start+Duration. It returns nil, changing nothing, if the window is empty or
// overlaps anything already placed. The cursor is not moved.
func (s *DayScheduler) InsertFixedItem(item Item) *Item {
	if item.End.IsZero() {
		item.End = item.Start.Add(item.Duration)
	}
	if item.Start.IsZero() || !item.End.After(item.Start) {
		return nil
	}
	item.Duration = item.End.Sub(item.Start)
	for _, p := range s.items {
		if item.overlaps(p) {
			return nil
		}
	}
	return s.place(item, true)
}

// AddItem places a flexible item at the earliest feasible position after the
// cursor plus its travel time, waiting for MinStart and hopping over anything
// already placed. It returns nil if the item would end after MaxEnd or the
// day's end bound. On success the cursor moves to the item's end.
func (s *DayScheduler) AddItem(item Item) *Item {
	if item.Duration <= 0 {
		return nil
	}
	start, ok := s.earliest(s.cursor, item.Duration, item.TravelTime, item.MinStart)
	if !ok {
		return nil
	}
	end := start.Add(item.Duration)
	if !item.MaxEnd.IsZero() && end.After(item.MaxEnd) {
		return nil
	}
	item.Start, item.End = start, end
	placed := s.place(item, false)
	s.cursor = end
	return placed
}

// AdvanceTo moves the cursor forward to t. It never moves backwards.
func (s *DayScheduler) AdvanceTo(t time.Time) {
	if t.After(s.cursor) {
		s.cursor = t
	}
}

// CanFit reports whether an item of duration d, travelling travel first,
// would fit before the end bound. Nothing is mutated.
func (s *DayScheduler) CanFit(d, travel time.Duration) bool {
	if d <= 0 {
		return false
	}
	_, ok := s.earliest(s.cursor, d, travel, time.Time{})
	return ok
}

// NextBoundary is the start of the first placed item at or after the cursor,
// or the end bound when nothing follows.
func (s *DayScheduler) NextBoundary() time.Time {
	next := s.end
	for _, p := range s.items {
		if !p.Start.Before(s.cursor) && p.Start.Before(next) {
			next = p.Start
		}
	}
	return next
}

func (s *DayScheduler) earliest(from time.Time, d, travel time.Duration, minStart time.Time) (time.Time, bool) {
	start := from.Add(travel)
	if start.Before(s.start) {
		start = s.start
	}
	if start.Before(minStart) {
		start = minStart
	}
	for moved := true; moved; {
		moved = false
		end := start.Add(d)
		for _, p := range s.items {
			if start.Before(p.End) && p.Start.Before(end) {
				start = p.End.Add(travel)
				moved = true
				break
			}
		}
	}
	if start.Add(d).After(s.end) {
		return time.Time{}, false
	}
	return start, true
}

func (s *DayScheduler) place(item Item, fixed bool) *Item {
	s.seq++
	item.fixed = fixed
	item.seq = s.seq
	p := &item
	s.items = append(s.items, p)
	out := *p
	return &out
}

// rank orders items by resolution priority: fixed before flexible, then by
// insertion order.
func rank(a, b *Item) int {
	if a.fixed != b.fixed {
		if a.fixed {
			return -1
		}
		return 1
	}
	return a.seq - b.seq
}

// RemoveConflicts keeps, among every set of overlapping items, the
// higher-priority ones and drops the rest. It returns how many were removed.
func (s *DayScheduler) RemoveConflicts() int {
	ranked := slices.Clone(s.items)
	slices.SortFunc(ranked, rank)

	kept := make([]*Item, 0, len(ranked))
	for _, it := range ranked {
		clash := false
		for _, k := range kept {
			if it.overlaps(k) {
				clash = true
				break
			}
		}
		if !clash {
			kept = append(kept, it)
		}
	}
	removed := len(s.items) - len(kept)
	s.items = kept
	return removed
}

// RemoveItemsBefore drops every item starting before t unless its type is
// protected. It returns how many were removed.
func (s *DayScheduler) RemoveItemsBefore(t time.Time, protected ...types.ItemType) int {
	kept := s.items[:0]
	removed := 0
	for _, it := range s.items {
		if it.Start.Before(t) && !slices.Contains(protected, it.Type) {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	s.items = kept
	return removed
}

// Validate reports whether the placed items are overlap-free, listing each
// conflicting pair otherwise.
func (s *DayScheduler) Validate() (bool, []Conflict) {
	items := s.Items()
	var out []Conflict
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if !items[j].Start.Before(items[i].End) {
				break
			}
			out = append(out, Conflict{A: items[i], B: items[j]})
		}
	}
	return len(out) == 0, out
}

// Items returns copies of the placed items ordered by start time.
func (s *DayScheduler) Items() []Item {
	out := make([]Item, len(s.items))
	for i, it := range s.items {
		out[i] = *it
	}
	slices.SortStableFunc(out, func(a, b Item) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return a.seq - b.seq
	})
	return out
}
