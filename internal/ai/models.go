package ai

import "wayfarer/internal/types"

// DayBrief is what the advisor sees of one day: its stops in the current
// geographic order.
type DayBrief struct {
	DayNumber int
	Date      string
	DayTrip   bool
	Stops     []types.Candidate
}

// OrderHint captures the structured output from the model.
type OrderHint struct {
	// Order lists every stop id exactly once, in the proposed visit order.
	Order []types.ID `json:"order"`

	// Theme is a short title for the day, e.g. "Temples of Higashiyama".
	Theme string `json:"theme"`
}

// Valid reports whether the hint is a permutation of the brief's stops.
func (h *OrderHint) Valid(day DayBrief) bool {
	if h == nil || len(h.Order) != len(day.Stops) {
		return false
	}
	want := make(map[types.ID]bool, len(day.Stops))
	for _, s := range day.Stops {
		want[s.ID] = true
	}
	for _, id := range h.Order {
		if !want[id] {
			return false
		}
		delete(want, id)
	}
	return true
}
