package service

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wayfarer/internal/ai"
	"wayfarer/internal/modules/cluster"
	"wayfarer/internal/obs"
	"wayfarer/internal/types"
)

type advisorFunc func(ctx context.Context, day ai.DayBrief) (*ai.OrderHint, error)

func (f advisorFunc) ProposeOrder(ctx context.Context, day ai.DayBrief) (*ai.OrderHint, error) {
	return f(ctx, day)
}

func spot(id, category string, lat, lng float64) types.Candidate {
	return types.Candidate{ID: types.ID(id), Name: id, Category: category, Lat: lat, Lng: lng, DurationMin: 60, Rating: 4.4, ReviewCount: 250}
}

// Three tight neighbourhoods a few kilometres apart.
func kyotoRequest() PlanRequest {
	return PlanRequest{
		Preferences: types.Preferences{
			DurationDays: 3,
			StartDate:    "2026-05-04",
			Destination:  types.Point{Lat: 35.0116, Lng: 135.7681},
			Pacing:       types.PacingModerate,
		},
		Candidates: []types.Candidate{
			spot("gion-1", "temple", 35.0037, 135.7788),
			spot("gion-2", "temple", 35.0050, 135.7760),
			spot("gion-3", "market", 35.0025, 135.7800),
			spot("arashi-1", "temple", 35.0170, 135.6710),
			spot("arashi-2", "park", 35.0155, 135.6735),
			spot("arashi-3", "park", 35.0140, 135.6760),
			spot("kita-1", "shrine", 35.0394, 135.7292),
			spot("kita-2", "shrine", 35.0410, 135.7310),
			spot("kita-3", "museum", 35.0380, 135.7270),
		},
	}
}

func activityIDs(days []types.TripDay) []types.ID {
	var ids []types.ID
	for _, d := range days {
		for _, it := range d.Items {
			if it.Type == types.ItemActivity {
				ids = append(ids, it.CandidateID)
			}
		}
	}
	return ids
}

func TestPlan_RejectsMalformedRequests(t *testing.T) {
	p := NewTripPlanner(DefaultOptions())
	cases := map[string]func(*PlanRequest){
		"zero days":     func(r *PlanRequest) { r.Preferences.DurationDays = 0 },
		"too many days": func(r *PlanRequest) { r.Preferences.DurationDays = MaxTripDays + 1 },
		"pacing":        func(r *PlanRequest) { r.Preferences.Pacing = "frantic" },
		"start date":    func(r *PlanRequest) { r.Preferences.StartDate = "05/04/2026" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := kyotoRequest()
			mutate(&req)
			_, err := p.Plan(context.Background(), req)
			require.ErrorIs(t, err, ErrBadRequest)
		})
	}
}

func TestPlan_Pipeline(t *testing.T) {
	rec := &obs.Recorder{}
	opts := DefaultOptions()
	opts.Emit = rec
	p := NewTripPlanner(opts)

	it, err := p.Plan(context.Background(), kyotoRequest())
	require.NoError(t, err)
	require.Len(t, it.Days, 3)

	for i, d := range it.Days {
		assert.Equal(t, i+1, d.DayNumber)
		assert.Equal(t, time.Date(2026, 5, 4+i, 0, 0, 0, 0, time.UTC).Format(time.DateOnly), d.Date)
		assert.NotEmpty(t, d.Theme)
	}

	ids := activityIDs(it.Days)
	assert.NotEmpty(t, ids)
	seen := map[types.ID]bool{}
	for _, id := range ids {
		assert.False(t, seen[id], "%s scheduled twice", id)
		seen[id] = true
	}

	assert.Equal(t, len(ids), it.Summary.Activities)
	assert.Zero(t, it.Summary.AdvisedDays)
	assert.GreaterOrEqual(t, it.Validation.Score, 0)
	assert.LessOrEqual(t, it.Validation.Score, 100)
	assert.NotNil(t, it.Validation.Warnings)
	assert.Len(t, it.Capacity, 3)
	assert.Equal(t, 9, it.Profile.Samples)

	assert.Equal(t, 1, rec.Count(obs.KindPlanCompleted))
	assert.Equal(t, 3, rec.Count(obs.KindAdvisorFallback))
}

func TestPlan_RedEyeDepartureKeepsLastDay(t *testing.T) {
	jst := time.FixedZone("JST", 9*3600)
	dep := time.Date(2026, 5, 7, 0, 30, 0, 0, jst)
	req := kyotoRequest()
	req.Outbound = &types.TransportLeg{Mode: types.ModeFlight, OriginName: "KIX", DestinationName: "Taipei", DepartureTime: &dep}

	it, err := NewTripPlanner(DefaultOptions()).Plan(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, it.Days, 3)
	require.Len(t, it.Capacity, 3)
	assert.Greater(t, it.Capacity[2].MaxPerDay, 0)

	last := it.Days[2]
	assert.Equal(t, "2026-05-06", last.Date)
	var flight, transfer *types.TripItem
	activities := 0
	for i, item := range last.Items {
		switch item.Type {
		case types.ItemTransport:
			flight = &last.Items[i]
		case types.ItemTransfer:
			transfer = &last.Items[i]
		case types.ItemActivity:
			activities++
		}
	}
	require.NotNil(t, flight)
	require.NotNil(t, transfer)
	assert.Equal(t, "24:30", flight.StartTime)
	assert.Equal(t, "Flight to Taipei", flight.Title)
	assert.Equal(t, "22:30", transfer.EndTime)
	assert.Positive(t, activities)
	assert.Equal(t, flight.ID, last.Items[len(last.Items)-1].ID)

	for _, d := range it.Days[:2] {
		for _, item := range d.Items {
			assert.NotEqual(t, types.ItemTransport, item.Type)
		}
	}
}

func TestPlan_Deterministic(t *testing.T) {
	p := NewTripPlanner(DefaultOptions())
	a, err := p.Plan(context.Background(), kyotoRequest())
	require.NoError(t, err)
	b, err := p.Plan(context.Background(), kyotoRequest())
	require.NoError(t, err)

	require.Equal(t, a, b)
	ids := map[string]bool{}
	for _, d := range a.Days {
		for _, item := range d.Items {
			require.NotEmpty(t, item.ID)
			require.False(t, ids[item.ID], "duplicate id %s", item.ID)
			ids[item.ID] = true
		}
	}
}

func TestPlan_AdvisorReordersAndThemes(t *testing.T) {
	rec := &obs.Recorder{}
	opts := DefaultOptions()
	opts.Emit = rec
	opts.Advisor = advisorFunc(func(_ context.Context, day ai.DayBrief) (*ai.OrderHint, error) {
		order := make([]types.ID, len(day.Stops))
		for i, s := range day.Stops {
			order[len(order)-1-i] = s.ID
		}
		return &ai.OrderHint{Order: order, Theme: "Slow morning walks"}, nil
	})

	it, err := NewTripPlanner(opts).Plan(context.Background(), kyotoRequest())
	require.NoError(t, err)
	assert.Equal(t, 3, it.Summary.AdvisedDays)
	assert.Zero(t, rec.Count(obs.KindAdvisorFallback))
	for _, d := range it.Days {
		assert.Equal(t, "Slow morning walks", d.Theme)
	}
}

func TestPlan_AdvisorFallback(t *testing.T) {
	cases := map[string]ai.Advisor{
		"error": advisorFunc(func(context.Context, ai.DayBrief) (*ai.OrderHint, error) {
			return nil, errors.New("quota exceeded")
		}),
		"not a permutation": advisorFunc(func(_ context.Context, day ai.DayBrief) (*ai.OrderHint, error) {
			return &ai.OrderHint{Order: []types.ID{day.Stops[0].ID, "made-up"}, Theme: "Invented"}, nil
		}),
		"slow": advisorFunc(func(ctx context.Context, _ ai.DayBrief) (*ai.OrderHint, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}),
	}
	for name, advisor := range cases {
		t.Run(name, func(t *testing.T) {
			rec := &obs.Recorder{}
			opts := DefaultOptions()
			opts.Advisor = advisor
			opts.AdvisorTimeout = 20 * time.Millisecond
			opts.Emit = rec

			it, err := NewTripPlanner(opts).Plan(context.Background(), kyotoRequest())
			require.NoError(t, err)
			assert.Zero(t, it.Summary.AdvisedDays)
			assert.Equal(t, 3, rec.Count(obs.KindAdvisorFallback))
			for _, d := range it.Days {
				assert.NotEqual(t, "Invented", d.Theme)
				assert.NotEmpty(t, d.Theme)
			}
		})
	}
}

func TestPlan_StartDateFromArrival(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	dep := time.Date(2026, 5, 4, 7, 0, 0, 0, tokyo)
	arr := time.Date(2026, 5, 4, 9, 15, 0, 0, tokyo)

	req := kyotoRequest()
	req.Preferences.StartDate = ""
	req.Inbound = &types.TransportLeg{
		Mode:            types.ModeTrain,
		DestinationName: "Kyoto Station",
		Origin:          types.Point{Lat: 35.6812, Lng: 139.7671},
		Destination:     types.Point{Lat: 34.9858, Lng: 135.7588},
		DepartureTime:   &dep,
		ArrivalTime:     &arr,
	}

	it, err := NewTripPlanner(DefaultOptions()).Plan(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, it.Days)
	assert.Equal(t, "2026-05-04", it.Days[0].Date)
	assert.Equal(t, "2026-05-06", it.Days[2].Date)

	var transport []types.TripItem
	for _, item := range it.Days[0].Items {
		if item.Type == types.ItemTransport {
			transport = append(transport, item)
		}
	}
	require.Len(t, transport, 1)
	assert.Equal(t, "07:00", transport[0].StartTime)
	assert.Equal(t, "09:15", transport[0].EndTime)
}

func TestPlan_StartDateDefaultsToToday(t *testing.T) {
	p := NewTripPlanner(DefaultOptions())
	p.now = func() time.Time { return time.Date(2026, 10, 16, 22, 30, 0, 0, time.UTC) }

	req := kyotoRequest()
	req.Preferences.StartDate = ""
	req.Preferences.DurationDays = 1
	it, err := p.Plan(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, it.Days, 1)
	assert.Equal(t, "2026-10-16", it.Days[0].Date)
}

func TestAnchors(t *testing.T) {
	req := kyotoRequest()
	req.Preferences.Destination = types.Point{}
	hotel := &types.Accommodation{Name: "Kamo Inn", Lat: 35.0, Lng: 135.77}
	req.Accommodation = hotel

	center, origin := anchors(req)
	assert.True(t, center.Valid())
	assert.InDelta(t, 35.0196, center.Lat, 0.01)
	assert.Equal(t, hotel.Point(), origin)

	req.Candidates = nil
	center, _ = anchors(req)
	assert.Equal(t, hotel.Point(), center)
}

func TestFallbackTheme(t *testing.T) {
	cl := cluster.Cluster{Members: []types.Candidate{
		spot("a", "Shrine", 0, 0),
		spot("b", "museum", 0, 0),
		spot("c", "shrine", 0, 0),
	}}
	assert.Equal(t, "Shrine highlights", fallbackTheme(cl))

	cl.DayTrip = true
	assert.Equal(t, "Day trip: Shrine highlights", fallbackTheme(cl))

	tie := cluster.Cluster{Members: []types.Candidate{spot("a", "park", 0, 0), spot("b", "garden", 0, 0)}}
	assert.Equal(t, "Garden highlights", fallbackTheme(tie))

	assert.Equal(t, "Free exploration", fallbackTheme(cluster.Cluster{}))

	for cat, want := range map[string]string{"église": "Église highlights", "寺": "寺 highlights"} {
		theme := fallbackTheme(cluster.Cluster{Members: []types.Candidate{spot("a", cat, 0, 0)}})
		assert.Equal(t, want, theme)
		assert.True(t, utf8.ValidString(theme))
	}
}

func TestSummaryCountsEveryDay(t *testing.T) {
	it, err := NewTripPlanner(DefaultOptions()).Plan(context.Background(), kyotoRequest())
	require.NoError(t, err)

	var cost float64
	for _, d := range it.Days {
		for _, item := range d.Items {
			cost += item.EstimatedCost
		}
	}
	assert.InDelta(t, cost, it.Summary.TotalCost, 1e-9)

	ids := activityIDs(it.Days)
	for _, id := range it.Summary.Dropped {
		assert.False(t, slices.Contains(ids, id), "dropped %s still scheduled", id)
	}
}
