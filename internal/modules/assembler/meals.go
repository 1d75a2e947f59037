package assembler

import (
	"time"

	"wayfarer/internal/geo"
	"wayfarer/internal/modules/scheduler"
	"wayfarer/internal/obs"
	"wayfarer/internal/types"
)

// mealFor looks up the restaurant booked for this day's meal. listed is false
// when nothing was proposed; a listed meal with a nil restaurant is self-catered.
func (p *dayPlan) mealFor(meal types.MealType) (r *types.Restaurant, listed bool) {
	for _, mc := range p.in.Meals {
		if mc.DayNumber == p.num && mc.MealType == meal {
			return mc.Restaurant, true
		}
	}
	return nil, false
}

// serveMeals places lunch or dinner when the cursor is already inside the
// window, or when the next activity, ending at nextEnd, would swallow it.
func (p *dayPlan) serveMeals(nextEnd time.Time) {
	for _, slot := range []mealSlot{p.a.cfg.Lunch, p.a.cfg.Dinner} {
		if p.meals[slot.meal] {
			continue
		}
		cur := p.sched.Cursor()
		open, closeAt := p.date.Add(slot.window.start), p.date.Add(slot.window.end)
		if !cur.Before(closeAt) {
			continue
		}
		if !cur.Before(open) || nextEnd.After(closeAt) {
			p.addMeal(slot)
		}
	}
}

// finishMeals gives every main meal not yet attempted a last chance.
func (p *dayPlan) finishMeals() {
	for _, slot := range []mealSlot{p.a.cfg.Lunch, p.a.cfg.Dinner} {
		if p.meals[slot.meal] {
			continue
		}
		if p.sched.Cursor().Before(p.date.Add(slot.window.end)) {
			p.addMeal(slot)
			continue
		}
		p.meals[slot.meal] = true
		p.a.emit.Emit(obs.Event{Kind: obs.KindItemSkipped, Day: p.num, Reason: slot.title + " window passed"})
	}
}

// addMeal tries the slot once; the meal counts as attempted either way. A
// meal must start inside its window.
func (p *dayPlan) addMeal(slot mealSlot) bool {
	if p.meals[slot.meal] {
		return false
	}
	p.meals[slot.meal] = true

	item, ok := p.mealItem(slot)
	if !ok {
		return false
	}
	item.ID = p.newID(item.Title)
	item.Duration = slot.duration
	item.MinStart = p.date.Add(slot.window.start)
	item.MaxEnd = p.date.Add(slot.window.end + slot.duration)

	placed := p.sched.AddItem(item)
	if placed == nil {
		p.a.emit.Emit(obs.Event{Kind: obs.KindItemSkipped, Day: p.num, Reason: slot.title + " does not fit"})
		return false
	}
	if st := item.Payload.(stop); st.point.Valid() {
		p.pos = st.point
	}
	return true
}

// mealItem builds the unplaced item for a slot. Breakfast is optional: it is
// served at the lodging when included, at a listed restaurant otherwise, and
// left out when self-catered or when nothing applies. Lunch and dinner always
// get an item, falling back to a generated placeholder.
func (p *dayPlan) mealItem(slot mealSlot) (scheduler.Item, bool) {
	r, listed := p.mealFor(slot.meal)

	if slot.meal == types.MealBreakfast {
		if listed && r == nil {
			return scheduler.Item{}, false
		}
		if acc := p.in.Accommodation; acc != nil && acc.BreakfastIncluded {
			return scheduler.Item{
				Title: slot.title + " at " + acc.Name,
				Type:  types.ItemMeal,
				Payload: stop{
					point:         acc.Point(),
					reliability:   types.ReliabilityVerified,
					mealType:      slot.meal,
					hotelProvided: true,
				},
			}, true
		}
		if r == nil {
			return scheduler.Item{}, false
		}
	}

	if r != nil {
		rel := types.ReliabilityEstimated
		if r.Verified {
			rel = types.ReliabilityVerified
		}
		return scheduler.Item{
			Title:      slot.title + " — " + r.Name,
			Type:       types.ItemRestaurant,
			TravelTime: geo.TravelBetween(p.pos, r.Point()),
			Payload: stop{
				point:       r.Point(),
				cost:        r.EstimatedCost,
				reliability: rel,
				candidateID: r.ID,
				mealType:    slot.meal,
			},
		}, true
	}

	title := slot.title + " break"
	if listed {
		title = slot.title + " (self-catered)"
	}
	return scheduler.Item{
		Title:   title,
		Type:    types.ItemMeal,
		Payload: stop{point: p.pos, reliability: types.ReliabilityGenerated, mealType: slot.meal},
	}, true
}
