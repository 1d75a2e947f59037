// README: ScheduleAssembler inputs and tunables.
package assembler

import (
	"time"

	"wayfarer/internal/modules/cluster"
	"wayfarer/internal/types"
)

// TripInput is everything needed to lay out every day of one trip.
type TripInput struct {
	StartDate     time.Time
	NumDays       int
	Pacing        types.Pacing
	Clusters      []cluster.Cluster
	Pool          []types.Candidate
	Meals         []types.MealCandidate
	Accommodation *types.Accommodation
	Inbound       *types.TransportLeg
	Outbound      *types.TransportLeg
}

// window is an interval of offsets from midnight.
type window struct {
	start, end time.Duration
}

type mealSlot struct {
	meal     types.MealType
	title    string
	window   window
	duration time.Duration
}

type Config struct {
	Breakfast mealSlot
	Lunch     mealSlot
	Dinner    mealSlot

	ClosingMargin   time.Duration
	GapFillMinIdle  time.Duration
	GapFillRadiusKm float64
	GapFillMax      int

	FlightArrivalBuffer  time.Duration
	GroundArrivalBuffer  time.Duration
	FlightTerminalLead   time.Duration
	GroundTerminalLead   time.Duration
	CheckoutBeforeFlight time.Duration
	DefaultTransfer      time.Duration
	MinTransfer          time.Duration
	CheckInDuration      time.Duration
	CheckOutDuration     time.Duration
	DefaultCheckIn       time.Duration
	DefaultCheckOut      time.Duration
}

func DefaultConfig() Config {
	return Config{
		Breakfast: mealSlot{meal: types.MealBreakfast, title: "Breakfast", window: window{0, 10 * time.Hour}, duration: 45 * time.Minute},
		Lunch:     mealSlot{meal: types.MealLunch, title: "Lunch", window: window{11*time.Hour + 30*time.Minute, 14*time.Hour + 30*time.Minute}, duration: time.Hour},
		Dinner:    mealSlot{meal: types.MealDinner, title: "Dinner", window: window{18*time.Hour + 30*time.Minute, 21 * time.Hour}, duration: 75 * time.Minute},

		ClosingMargin:   30 * time.Minute,
		GapFillMinIdle:  60 * time.Minute,
		GapFillRadiusKm: 5,
		GapFillMax:      3,

		FlightArrivalBuffer:  90 * time.Minute,
		GroundArrivalBuffer:  30 * time.Minute,
		FlightTerminalLead:   2 * time.Hour,
		GroundTerminalLead:   30 * time.Minute,
		CheckoutBeforeFlight: 3*time.Hour + 30*time.Minute,
		DefaultTransfer:      45 * time.Minute,
		MinTransfer:          20 * time.Minute,
		CheckInDuration:      30 * time.Minute,
		CheckOutDuration:     15 * time.Minute,
		DefaultCheckIn:       15 * time.Hour,
		DefaultCheckOut:      11 * time.Hour,
	}
}

// dayBounds maps pacing onto the day's start and end offsets.
func dayBounds(p types.Pacing) (time.Duration, time.Duration) {
	switch p {
	case types.PacingRelaxed:
		return 9*time.Hour + 30*time.Minute, 21 * time.Hour
	case types.PacingPacked:
		return 8 * time.Hour, 22 * time.Hour
	default:
		return 9 * time.Hour, 21*time.Hour + 30*time.Minute
	}
}

// stop is the payload carried by every scheduled item.
type stop struct {
	point         types.Point
	cost          float64
	reliability   types.Reliability
	candidateID   types.ID
	mealType      types.MealType
	hotelProvided bool
}
