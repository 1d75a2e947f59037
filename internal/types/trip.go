// README: Trip inputs (meals, lodging, transport, preferences) and the itinerary output model.
package types

import "time"

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
)

type Restaurant struct {
	ID            ID       `json:"id"`
	Name          string   `json:"name"`
	Lat           float64  `json:"lat"`
	Lng           float64  `json:"lng"`
	PriceTier     int      `json:"priceTier"`
	Cuisine       []string `json:"cuisine,omitempty"`
	EstimatedCost float64  `json:"estimatedCost"`
	Verified      bool     `json:"verified"`
}

func (r Restaurant) Point() Point {
	return Point{Lat: r.Lat, Lng: r.Lng}
}

// MealCandidate with a nil Restaurant means the meal is self-catered.
type MealCandidate struct {
	DayNumber  int         `json:"dayNumber"`
	MealType   MealType    `json:"mealType"`
	Restaurant *Restaurant `json:"restaurant"`
}

type Accommodation struct {
	Name              string  `json:"name"`
	Lat               float64 `json:"lat"`
	Lng               float64 `json:"lng"`
	CheckInTime       string  `json:"checkInTime"`
	CheckOutTime      string  `json:"checkOutTime"`
	NightlyPrice      Money   `json:"nightlyPrice"`
	BreakfastIncluded bool    `json:"breakfastIncluded"`
}

func (a Accommodation) Point() Point {
	return Point{Lat: a.Lat, Lng: a.Lng}
}

type TransportMode string

const (
	ModeFlight TransportMode = "flight"
	ModeTrain  TransportMode = "train"
	ModeBus    TransportMode = "bus"
	ModeFerry  TransportMode = "ferry"
	ModeCar    TransportMode = "car"
)

// TransportLeg carries real timestamps when a timetable exists. Without
// them only EstimatedDurationMin is meaningful.
type TransportLeg struct {
	Mode                 TransportMode `json:"mode"`
	OriginName           string        `json:"originName,omitempty"`
	DestinationName      string        `json:"destName,omitempty"`
	Origin               Point         `json:"originCoords"`
	Destination          Point         `json:"destCoords"`
	DepartureTime        *time.Time    `json:"departureTime,omitempty"`
	ArrivalTime          *time.Time    `json:"arrivalTime,omitempty"`
	EstimatedDurationMin int           `json:"estimatedDurationMin,omitempty"`
	Price                Money         `json:"price"`
}

// Duration is the scheduled duration, or the estimate when timestamps are missing.
func (l TransportLeg) Duration() time.Duration {
	if l.DepartureTime != nil && l.ArrivalTime != nil && l.ArrivalTime.After(*l.DepartureTime) {
		return l.ArrivalTime.Sub(*l.DepartureTime)
	}
	return time.Duration(l.EstimatedDurationMin) * time.Minute
}

// Departure returns the departure time, deriving it from arrival and the estimate if needed.
func (l TransportLeg) Departure() (time.Time, bool) {
	if l.DepartureTime != nil {
		return *l.DepartureTime, true
	}
	if l.ArrivalTime != nil && l.EstimatedDurationMin > 0 {
		return l.ArrivalTime.Add(-l.Duration()), true
	}
	return time.Time{}, false
}

// Arrival returns the arrival time, deriving it from departure and the estimate if needed.
func (l TransportLeg) Arrival() (time.Time, bool) {
	if l.ArrivalTime != nil {
		return *l.ArrivalTime, true
	}
	if l.DepartureTime != nil && l.EstimatedDurationMin > 0 {
		return l.DepartureTime.Add(l.Duration()), true
	}
	return time.Time{}, false
}

// Timetabled reports whether both ends come from a real timetable.
func (l TransportLeg) Timetabled() bool {
	return l.DepartureTime != nil && l.ArrivalTime != nil
}

// IsFlight reports whether the leg takes airport buffers. A leg with no mode
// is treated as a flight.
func (l TransportLeg) IsFlight() bool {
	return l.Mode == ModeFlight || l.Mode == ""
}

// OvernightGrace is how far past midnight a departure may leave and still
// close the previous day.
const OvernightGrace = 4 * time.Hour

// ClosesDay reports whether a departure at t ends the day that starts at
// midnight: any time that calendar day or in the first OvernightGrace of the
// next one.
func ClosesDay(t, midnight time.Time) bool {
	return !t.Before(midnight) && t.Before(midnight.AddDate(0, 0, 1).Add(OvernightGrace))
}

type Pacing string

const (
	PacingRelaxed  Pacing = "relaxed"
	PacingModerate Pacing = "moderate"
	PacingPacked   Pacing = "packed"
)

type Preferences struct {
	DurationDays int      `json:"durationDays"`
	StartDate    string   `json:"startDate,omitempty"`
	Origin       Point    `json:"originCoords"`
	Destination  Point    `json:"destCoords"`
	GroupSize    int      `json:"groupSize"`
	MealDietary  []string `json:"mealDietary,omitempty"`
	Pacing       Pacing   `json:"pacing,omitempty"`
}

type ItemType string

const (
	ItemActivity   ItemType = "activity"
	ItemRestaurant ItemType = "restaurant"
	ItemMeal       ItemType = "meal"
	ItemTransport  ItemType = "transport"
	ItemTransfer   ItemType = "transfer"
	ItemCheckIn    ItemType = "check_in"
	ItemCheckOut   ItemType = "check_out"
)

// Logistics reports whether the type is transport or lodging bookkeeping.
func (t ItemType) Logistics() bool {
	switch t {
	case ItemTransport, ItemTransfer, ItemCheckIn, ItemCheckOut:
		return true
	}
	return false
}

// LogisticsTypes lists every logistics item type.
var LogisticsTypes = []ItemType{ItemTransport, ItemTransfer, ItemCheckIn, ItemCheckOut}

type Reliability string

const (
	ReliabilityVerified  Reliability = "verified"
	ReliabilityEstimated Reliability = "estimated"
	ReliabilityGenerated Reliability = "generated"
)

type TripItem struct {
	ID              string      `json:"id"`
	CandidateID     ID          `json:"candidateId,omitempty"`
	DayNumber       int         `json:"dayNumber"`
	StartTime       string      `json:"startTime"`
	EndTime         string      `json:"endTime"`
	Type            ItemType    `json:"type"`
	Title           string      `json:"title"`
	Lat             float64     `json:"lat"`
	Lng             float64     `json:"lng"`
	EstimatedCost   float64     `json:"estimatedCost"`
	OrderIndex      int         `json:"orderIndex"`
	DataReliability Reliability `json:"dataReliability"`
	MealType        MealType    `json:"mealType,omitempty"`
	HotelProvided   bool        `json:"hotelProvided,omitempty"`
	// TravelKm and TravelMin describe the leg from the previous stop as
	// reported by a directions provider. Zero means not reported.
	TravelKm  float64 `json:"travelKm,omitempty"`
	TravelMin int     `json:"travelMin,omitempty"`
}

func (it TripItem) Point() Point {
	return Point{Lat: it.Lat, Lng: it.Lng}
}

type GeoDiagnostics struct {
	MaxLegKm       float64 `json:"maxLegKm"`
	P95LegKm       float64 `json:"p95LegKm"`
	TotalTravelMin int     `json:"totalTravelMin"`
}

type TripDay struct {
	DayNumber      int            `json:"dayNumber"`
	Date           string         `json:"date"`
	Theme          string         `json:"theme,omitempty"`
	DayTrip        bool           `json:"dayTrip,omitempty"`
	Items          []TripItem     `json:"items"`
	GeoDiagnostics GeoDiagnostics `json:"geoDiagnostics"`
}

// Clone returns a copy whose item slice can be mutated independently.
func (d TripDay) Clone() TripDay {
	d.Items = append([]TripItem(nil), d.Items...)
	return d
}

type ValidationResult struct {
	Score     int      `json:"score"`
	Warnings  []string `json:"warnings"`
	AutoFixes []string `json:"autoFixes"`
}
