package assembler

import (
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"

	"wayfarer/internal/geo"
	"wayfarer/internal/modules/scheduler"
	"wayfarer/internal/obs"
	"wayfarer/internal/types"
)

// departure is the fixed timeline of the last day's outbound leg.
type departure struct {
	leg           types.TransportLeg
	depart        time.Time
	arrive        time.Time
	atTerminal    time.Time
	transferStart time.Time
}

func sameDay(t, date time.Time) bool {
	return types.Midnight(t.In(date.Location())).Equal(date)
}

func (p *dayPlan) lead(leg types.TransportLeg) time.Duration {
	if leg.IsFlight() {
		return p.a.cfg.FlightTerminalLead
	}
	return p.a.cfg.GroundTerminalLead
}

func (p *dayPlan) arrivalBuffer(leg types.TransportLeg) time.Duration {
	if leg.IsFlight() {
		return p.a.cfg.FlightArrivalBuffer
	}
	return p.a.cfg.GroundArrivalBuffer
}

func legTitle(leg types.TransportLeg, place string) string {
	mode := string(leg.Mode)
	if mode == "" {
		mode = "transport"
	}
	if place == "" {
		return fmt.Sprintf("Depart by %s", mode)
	}
	r, n := utf8.DecodeRuneInString(mode)
	return fmt.Sprintf("%c%s to %s", unicode.ToUpper(r), mode[n:], place)
}

func legReliability(leg types.TransportLeg) types.Reliability {
	if leg.Timetabled() {
		return types.ReliabilityVerified
	}
	return types.ReliabilityEstimated
}

// legWindow returns the leg's interval, falling back to one hour when only
// a single timestamp is known.
func legWindow(leg types.TransportLeg) (time.Time, time.Time, bool) {
	dep, okDep := leg.Departure()
	arr, okArr := leg.Arrival()
	switch {
	case okDep && okArr && arr.After(dep):
		return dep, arr, true
	case okDep:
		return dep, dep.Add(time.Hour), true
	case okArr:
		return arr.Add(-time.Hour), arr, true
	}
	return time.Time{}, time.Time{}, false
}

// planDeparture works backwards from the outbound departure: terminal lead,
// then the transfer from the lodging. It returns nil when the leg does not
// close this day. A red-eye in the small hours of the next day still does.
func (p *dayPlan) planDeparture() *departure {
	leg := *p.in.Outbound
	dep, arr, ok := legWindow(leg)
	if !ok || !types.ClosesDay(dep, p.date) {
		return nil
	}
	transfer := p.a.cfg.DefaultTransfer
	if from := p.homePoint(); from.Valid() && leg.Origin.Valid() {
		transfer = max(geo.EstimateTravel(geo.DistanceKm(from, leg.Origin)), p.a.cfg.MinTransfer)
	}
	atTerminal := dep.Add(-p.lead(leg))
	return &departure{
		leg:           leg,
		depart:        dep,
		arrive:        arr,
		atTerminal:    atTerminal,
		transferStart: atTerminal.Add(-transfer),
	}
}

func (p *dayPlan) placeDeparture(d *departure) {
	p.fixed(scheduler.Item{
		Title: legTitle(d.leg, d.leg.DestinationName),
		Type:  types.ItemTransport,
		Start: d.depart,
		End:   d.arrive,
		Payload: stop{
			point:       d.leg.Origin,
			cost:        d.leg.Price.Major(),
			reliability: legReliability(d.leg),
		},
	})
	to := d.leg.OriginName
	if to == "" {
		to = "departure point"
	}
	p.fixed(scheduler.Item{
		Title:   "Transfer to " + to,
		Type:    types.ItemTransfer,
		Start:   d.transferStart,
		End:     d.atTerminal,
		Payload: stop{point: d.leg.Origin, reliability: types.ReliabilityEstimated},
	})

	if p.in.Accommodation == nil {
		return
	}
	out := p.date.Add(types.ClockOr(p.in.Accommodation.CheckOutTime, p.a.cfg.DefaultCheckOut))
	if d.leg.IsFlight() {
		if latest := d.depart.Add(-p.a.cfg.CheckoutBeforeFlight); latest.Before(out) {
			out = latest
		}
	}
	if latest := d.transferStart.Add(-p.a.cfg.CheckOutDuration); latest.Before(out) {
		out = latest
	}
	p.placeCheckOut(out)
}

func (p *dayPlan) placeCheckOut(at time.Time) {
	acc := p.in.Accommodation
	p.fixed(scheduler.Item{
		Title:    "Check out: " + acc.Name,
		Type:     types.ItemCheckOut,
		Start:    at,
		Duration: p.a.cfg.CheckOutDuration,
		Payload:  stop{point: acc.Point(), reliability: types.ReliabilityVerified},
	})
}

// placeArrival puts the inbound leg and the check-in on day one. The cursor
// is held back until the traveller has cleared the arrival buffer.
func (p *dayPlan) placeArrival() {
	if leg := p.in.Inbound; leg != nil {
		dep, arr, ok := legWindow(*leg)
		if ok && sameDay(arr, p.date) {
			if dep.Before(p.date) {
				dep = p.date
			}
			p.fixed(scheduler.Item{
				Title: legTitle(*leg, leg.DestinationName),
				Type:  types.ItemTransport,
				Start: dep,
				End:   arr,
				Payload: stop{
					point:       leg.Destination,
					cost:        leg.Price.Major(),
					reliability: legReliability(*leg),
				},
			})
			p.ready = arr.Add(p.arrivalBuffer(*leg))
			p.sched.AdvanceTo(p.ready)
			if leg.Destination.Valid() {
				p.pos = leg.Destination
			}
		}
	}

	acc := p.in.Accommodation
	if acc == nil {
		return
	}
	at := p.date.Add(types.ClockOr(acc.CheckInTime, p.a.cfg.DefaultCheckIn))
	if !p.ready.IsZero() {
		if earliest := p.ready.Add(geo.TravelBetween(p.pos, acc.Point())); earliest.After(at) {
			at = earliest
		}
	}
	nights := max(p.in.NumDays-1, 1)
	placed := p.fixed(scheduler.Item{
		Title:    "Check in: " + acc.Name,
		Type:     types.ItemCheckIn,
		Start:    at,
		Duration: p.a.cfg.CheckInDuration,
		Payload: stop{
			point:       acc.Point(),
			cost:        acc.NightlyPrice.Major() * float64(nights),
			reliability: types.ReliabilityVerified,
		},
	})
	// Drop the bags first when check-in is close anyway.
	if placed != nil && !p.ready.IsZero() && placed.Start.Sub(p.sched.Cursor()) <= time.Hour {
		p.sched.AdvanceTo(placed.End)
		if acc.Point().Valid() {
			p.pos = acc.Point()
		}
	}
}

func (p *dayPlan) fixed(item scheduler.Item) *scheduler.Item {
	item.ID = p.newID(item.Title)
	placed := p.sched.InsertFixedItem(item)
	if placed == nil {
		p.a.emit.Emit(obs.Event{Kind: obs.KindItemSkipped, Day: p.num, Reason: item.Title + " overlaps a fixed item"})
	}
	return placed
}
