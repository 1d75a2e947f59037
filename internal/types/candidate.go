// README: Candidate activities and their opening hours, as handed over by the search collaborators.
package types

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"
)

// DefaultVisitDuration is used when a candidate arrives without a duration.
const DefaultVisitDuration = 90 * time.Minute

type Candidate struct {
	ID            ID            `json:"id"`
	Name          string        `json:"name"`
	Category      string        `json:"category"`
	Lat           float64       `json:"lat"`
	Lng           float64       `json:"lng"`
	DurationMin   int           `json:"durationMin"`
	EstimatedCost float64       `json:"estimatedCost"`
	Rating        float64       `json:"rating"`
	ReviewCount   int           `json:"reviewCount"`
	MustSee       bool          `json:"mustSee"`
	OpeningHours  *OpeningHours `json:"openingHours,omitempty"`
}

func (c Candidate) Point() Point {
	return Point{Lat: c.Lat, Lng: c.Lng}
}

func (c Candidate) Duration() time.Duration {
	if c.DurationMin <= 0 {
		return DefaultVisitDuration
	}
	return time.Duration(c.DurationMin) * time.Minute
}

// Score weighs rating by review volume so a 5.0 with two reviews does not beat a 4.6 with thousands.
func (c Candidate) Score() float64 {
	return c.Rating * math.Log1p(float64(c.ReviewCount))
}

// ComparePriority orders candidates mustSee first, then by score, then by id.
// It is a cmp function for slices.SortFunc.
func ComparePriority(a, b Candidate) int {
	if a.MustSee != b.MustSee {
		if a.MustSee {
			return -1
		}
		return 1
	}
	sa, sb := a.Score(), b.Score()
	if sa > sb {
		return -1
	}
	if sa < sb {
		return 1
	}
	return strings.Compare(string(a.ID), string(b.ID))
}

// TimeWindow is an open/close pair in "HH:MM".
type TimeWindow struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Bounds returns the window as offsets from midnight. A close time at or
// before the open time is read as closing after midnight.
func (w TimeWindow) Bounds() (open, close time.Duration, ok bool) {
	o, err := ParseClock(w.Open)
	if err != nil {
		return 0, 0, false
	}
	c, err := ParseClock(w.Close)
	if err != nil {
		return 0, 0, false
	}
	if c <= o {
		c += 24 * time.Hour
	}
	return o, c, true
}

// OpeningHours is either one window valid every day or a per-weekday map.
// In the weekly form a null entry means closed on that day.
type OpeningHours struct {
	Daily  *TimeWindow
	Weekly map[time.Weekday]*TimeWindow
}

var weekdayKeys = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

func (h *OpeningHours) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	var single TimeWindow
	if err := json.Unmarshal(b, &single); err == nil && single.Open != "" {
		h.Daily = &single
		return nil
	}
	var raw map[string]*TimeWindow
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	h.Weekly = make(map[time.Weekday]*TimeWindow, len(raw))
	for k, w := range raw {
		key := strings.ToLower(k)
		if len(key) > 3 {
			key = key[:3]
		}
		day, ok := weekdayKeys[key]
		if !ok {
			continue
		}
		h.Weekly[day] = w
	}
	return nil
}

func (h OpeningHours) MarshalJSON() ([]byte, error) {
	if h.Daily != nil {
		return json.Marshal(h.Daily)
	}
	out := make(map[string]*TimeWindow, len(h.Weekly))
	for day, w := range h.Weekly {
		out[strings.ToLower(day.String()[:3])] = w
	}
	return json.Marshal(out)
}

// On returns the window for the given weekday. Unknown hours are reported
// as open all day (zero window, open=true); closed days report open=false.
func (h *OpeningHours) On(day time.Weekday) (w TimeWindow, open bool) {
	if h == nil {
		return TimeWindow{}, true
	}
	if h.Daily != nil {
		return *h.Daily, true
	}
	if h.Weekly == nil {
		return TimeWindow{}, true
	}
	win, listed := h.Weekly[day]
	if !listed {
		return TimeWindow{}, true
	}
	if win == nil {
		return TimeWindow{}, false
	}
	return *win, true
}
