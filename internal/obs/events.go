// README: Structured events emitted by the planning core; sinks decide where they go.
package obs

import (
	"sync"

	"wayfarer/internal/types"
)

type Kind string

const (
	KindClusterFormed      Kind = "cluster_formed"
	KindRadiusRelaxed      Kind = "radius_relaxed"
	KindCandidateMoved     Kind = "candidate_moved"
	KindCandidateDropped   Kind = "candidate_dropped"
	KindItemSkipped        Kind = "item_skipped"
	KindConflictResolved   Kind = "conflict_resolved"
	KindScheduleDefect     Kind = "schedule_defect"
	KindAdvisorFallback    Kind = "advisor_fallback"
	KindEnrichmentFallback Kind = "enrichment_fallback"
	KindAutoFix            Kind = "auto_fix"
	KindPlanCompleted      Kind = "plan_completed"
)

// Event is one observation from the core. Day is 0 when the event is trip-wide.
type Event struct {
	Kind      Kind
	Day       int
	Candidate types.ID
	Reason    string
	Value     float64
}

// Emitter receives core events. Implementations must be safe for concurrent use.
type Emitter interface {
	Emit(Event)
}

type nop struct{}

func (nop) Emit(Event) {}

// Nop discards every event.
func Nop() Emitter { return nop{} }

// OrNop returns e, or a discarding emitter when e is nil.
func OrNop(e Emitter) Emitter {
	if e == nil {
		return nop{}
	}
	return e
}

type multi []Emitter

func (m multi) Emit(ev Event) {
	for _, e := range m {
		e.Emit(ev)
	}
}

// Multi fans an event out to every non-nil emitter.
func Multi(emitters ...Emitter) Emitter {
	var out multi
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Recorder keeps events in memory, mainly for tests and the demo CLI.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}
