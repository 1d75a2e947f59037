package scheduler

import (
	"testing"
	"time"

	"wayfarer/internal/types"
)

var date = time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)

func clock(h, m int) time.Time {
	return date.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func newDay() *DayScheduler {
	return New(date, 9*time.Hour, 21*time.Hour)
}

func TestInsertFixedItem_RejectsOverlap(t *testing.T) {
	s := newDay()
	if s.InsertFixedItem(Item{ID: "flight", Type: types.ItemTransport, Start: clock(10, 0), End: clock(12, 0)}) == nil {
		t.Fatalf("expected first fixed item to be placed")
	}
	if got := s.InsertFixedItem(Item{ID: "checkin", Start: clock(11, 30), Duration: time.Hour}); got != nil {
		t.Fatalf("expected overlapping fixed item to be rejected, got %+v", got)
	}
	// touching intervals are fine: [12:00, 12:30)
	if s.InsertFixedItem(Item{ID: "taxi", Start: clock(12, 0), Duration: 30 * time.Minute}) == nil {
		t.Fatalf("expected adjacent fixed item to be placed")
	}
	if s.Cursor() != clock(9, 0) {
		t.Errorf("fixed items must not move the cursor, got %v", s.Cursor())
	}
	if len(s.Items()) != 2 {
		t.Errorf("expected 2 items, got %d", len(s.Items()))
	}
}

func TestInsertFixedItem_EmptyWindow(t *testing.T) {
	s := newDay()
	if s.InsertFixedItem(Item{ID: "x", Start: clock(10, 0)}) != nil {
		t.Errorf("expected zero-length fixed item to be rejected")
	}
}

func TestAddItem_TravelAndCursor(t *testing.T) {
	s := newDay()
	got := s.AddItem(Item{ID: "a", Duration: time.Hour, TravelTime: 15 * time.Minute})
	if got == nil {
		t.Fatalf("expected item to be placed")
	}
	if got.Start != clock(9, 15) || got.End != clock(10, 15) {
		t.Errorf("unexpected slot %v-%v", got.Start, got.End)
	}
	if s.Cursor() != clock(10, 15) {
		t.Errorf("cursor = %v, want 10:15", s.Cursor())
	}
}

func TestAddItem_WaitsForMinStart(t *testing.T) {
	s := newDay()
	got := s.AddItem(Item{ID: "museum", Duration: time.Hour, MinStart: clock(10, 0)})
	if got == nil || got.Start != clock(10, 0) {
		t.Fatalf("expected start at opening time, got %+v", got)
	}
}

func TestAddItem_FailsPastMaxEnd(t *testing.T) {
	s := newDay()
	s.AdvanceTo(clock(16, 0))
	got := s.AddItem(Item{ID: "museum", Duration: 90 * time.Minute, MaxEnd: clock(17, 0)})
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
	if s.Cursor() != clock(16, 0) {
		t.Errorf("failed placement must not move the cursor")
	}
}

func TestAddItem_FailsPastDayEnd(t *testing.T) {
	s := newDay()
	s.AdvanceTo(clock(20, 30))
	if s.AddItem(Item{ID: "late", Duration: time.Hour}) != nil {
		t.Fatalf("expected nil past day end")
	}
}

func TestAddItem_HopsOverFixedItem(t *testing.T) {
	s := newDay()
	s.InsertFixedItem(Item{ID: "checkin", Type: types.ItemCheckIn, Start: clock(10, 0), Duration: 30 * time.Minute})

	got := s.AddItem(Item{ID: "walk", Duration: 2 * time.Hour, TravelTime: 10 * time.Minute})
	if got == nil {
		t.Fatalf("expected item to be placed")
	}
	if got.Start != clock(10, 40) {
		t.Errorf("expected start after fixed item plus travel, got %v", got.Start)
	}
	if ok, conflicts := s.Validate(); !ok {
		t.Errorf("unexpected conflicts: %+v", conflicts)
	}
}

func TestAdvanceTo_NeverBackwards(t *testing.T) {
	s := newDay()
	s.AdvanceTo(clock(13, 0))
	s.AdvanceTo(clock(11, 0))
	if s.Cursor() != clock(13, 0) {
		t.Errorf("cursor moved backwards to %v", s.Cursor())
	}
}

func TestCanFit(t *testing.T) {
	s := newDay()
	s.AdvanceTo(clock(19, 0))
	if !s.CanFit(90*time.Minute, 15*time.Minute) {
		t.Errorf("expected 1h45 to fit before 21:00")
	}
	if s.CanFit(2*time.Hour, 15*time.Minute) {
		t.Errorf("expected 2h15 not to fit")
	}
	if s.Cursor() != clock(19, 0) || len(s.Items()) != 0 {
		t.Errorf("CanFit must not mutate")
	}
}

func TestRemoveConflicts_FixedBeatsFlexible(t *testing.T) {
	s := newDay()
	s.AddItem(Item{ID: "early", Duration: 2 * time.Hour})
	// a fixed item inserted later over the flexible one
	s.items = append(s.items, &Item{ID: "flight", Start: clock(10, 0), End: clock(11, 0), fixed: true, seq: 99})
	s.AddItem(Item{ID: "later", Duration: time.Hour})

	if ok, _ := s.Validate(); ok {
		t.Fatalf("expected a conflict before resolution")
	}
	if n := s.RemoveConflicts(); n != 1 {
		t.Fatalf("expected 1 removal, got %d", n)
	}
	ids := ""
	for _, it := range s.Items() {
		ids += it.ID + ","
	}
	if ids != "flight,later," {
		t.Errorf("unexpected survivors %q", ids)
	}
	if ok, conflicts := s.Validate(); !ok {
		t.Errorf("conflicts remain: %+v", conflicts)
	}
}

func TestRemoveConflicts_EarlierFlexibleWins(t *testing.T) {
	s := newDay()
	s.items = append(s.items,
		&Item{ID: "first", Start: clock(10, 0), End: clock(11, 0), seq: 1},
		&Item{ID: "second", Start: clock(10, 30), End: clock(11, 30), seq: 2},
	)
	if n := s.RemoveConflicts(); n != 1 {
		t.Fatalf("expected 1 removal, got %d", n)
	}
	if items := s.Items(); len(items) != 1 || items[0].ID != "first" {
		t.Errorf("expected earlier-inserted item to survive, got %+v", items)
	}
}

func TestRemoveItemsBefore_ProtectsTypes(t *testing.T) {
	s := newDay()
	s.InsertFixedItem(Item{ID: "flight", Type: types.ItemTransport, Start: clock(9, 0), Duration: time.Hour})
	s.AdvanceTo(clock(10, 0))
	s.AddItem(Item{ID: "temple", Type: types.ItemActivity, Duration: time.Hour})
	s.AddItem(Item{ID: "lunch", Type: types.ItemRestaurant, Duration: time.Hour})

	n := s.RemoveItemsBefore(clock(11, 0), types.ItemTransport)
	if n != 1 {
		t.Fatalf("expected 1 removal, got %d", n)
	}
	for _, it := range s.Items() {
		if it.ID == "temple" {
			t.Errorf("temple should have been removed")
		}
	}
}

func TestNew_InvertedBoundsCollapse(t *testing.T) {
	s := New(date, 18*time.Hour, 9*time.Hour)
	if s.Remaining() != 0 {
		t.Errorf("expected empty day, remaining %v", s.Remaining())
	}
	if s.AddItem(Item{ID: "x", Duration: time.Minute}) != nil {
		t.Errorf("nothing fits in an empty day")
	}
}

func TestNextBoundary(t *testing.T) {
	s := newDay()
	if s.NextBoundary() != s.End() {
		t.Errorf("empty day boundary should be the end bound")
	}
	s.InsertFixedItem(Item{ID: "dinner-res", Start: clock(19, 0), Duration: time.Hour})
	if s.NextBoundary() != clock(19, 0) {
		t.Errorf("boundary = %v, want 19:00", s.NextBoundary())
	}
}
