package capacity

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wayfarer/internal/modules/cluster"
	"wayfarer/internal/obs"
	"wayfarer/internal/types"
)

func at(day, hour, minute int) *time.Time {
	t := time.Date(2026, 5, day, hour, minute, 0, 0, time.UTC)
	return &t
}

func day(n int, ids ...string) cluster.Cluster {
	c := cluster.Cluster{DayNumber: n}
	for i, id := range ids {
		c.Members = append(c.Members, types.Candidate{ID: types.ID(id), Lat: 35, Lng: 135 + float64(i)*0.002, Rating: 4, ReviewCount: 10})
	}
	c.Refresh()
	return c
}

func countMembers(days []cluster.Cluster) int {
	n := 0
	for _, d := range days {
		n += len(d.Members)
	}
	return n
}

func TestAvailableHours(t *testing.T) {
	r := NewRebalancer(DefaultConfig(), nil)

	tests := []struct {
		name   string
		day    int
		timing Timing
		want   float64
	}{
		{name: "no transport", day: 1, timing: Timing{NumDays: 3}, want: 12},
		{
			name:   "afternoon flight arrival",
			day:    1,
			timing: Timing{NumDays: 3, Inbound: &types.TransportLeg{Mode: types.ModeFlight, ArrivalTime: at(1, 14, 30)}},
			want:   6,
		},
		{
			name:   "early arrival capped at default",
			day:    1,
			timing: Timing{NumDays: 3, Inbound: &types.TransportLeg{Mode: types.ModeFlight, ArrivalTime: at(1, 6, 0)}},
			want:   12,
		},
		{
			name:   "late arrival leaves nothing",
			day:    1,
			timing: Timing{NumDays: 3, Inbound: &types.TransportLeg{Mode: types.ModeFlight, ArrivalTime: at(1, 21, 0)}},
			want:   0,
		},
		{
			name:   "train arrival uses the short buffer",
			day:    1,
			timing: Timing{NumDays: 3, Inbound: &types.TransportLeg{Mode: types.ModeTrain, ArrivalTime: at(1, 20, 0)}},
			want:   1.5,
		},
		{
			name:   "evening departure",
			day:    3,
			timing: Timing{NumDays: 3, Outbound: &types.TransportLeg{Mode: types.ModeFlight, DepartureTime: at(3, 20, 0)}},
			want:   9,
		},
		{
			name:   "morning departure",
			day:    3,
			timing: Timing{NumDays: 3, Outbound: &types.TransportLeg{Mode: types.ModeFlight, DepartureTime: at(3, 8, 0)}},
			want:   0,
		},
		{
			name:   "red-eye after midnight keeps the last day",
			day:    3,
			timing: Timing{NumDays: 3, Outbound: &types.TransportLeg{Mode: types.ModeFlight, DepartureTime: at(4, 0, 30)}},
			want:   12,
		},
		{
			name:   "red-eye measured from trip start",
			day:    3,
			timing: Timing{NumDays: 3, Start: *at(1, 0, 0), Outbound: &types.TransportLeg{Mode: types.ModeFlight, DepartureTime: at(4, 1, 0)}},
			want:   12,
		},
		{
			name:   "departure before the last day leaves nothing",
			day:    3,
			timing: Timing{NumDays: 3, Start: *at(1, 0, 0), Outbound: &types.TransportLeg{Mode: types.ModeFlight, DepartureTime: at(2, 20, 0)}},
			want:   0,
		},
		{
			name:   "missing mode takes flight buffers",
			day:    3,
			timing: Timing{NumDays: 3, Outbound: &types.TransportLeg{DepartureTime: at(3, 20, 0)}},
			want:   9,
		},
		{
			name:   "departure derived from estimate",
			day:    2,
			timing: Timing{NumDays: 2, Outbound: &types.TransportLeg{Mode: types.ModeFlight, ArrivalTime: at(2, 20, 0), EstimatedDurationMin: 180}},
			want:   6,
		},
		{
			name:   "middle day ignores legs",
			day:    2,
			timing: Timing{NumDays: 3, Inbound: &types.TransportLeg{ArrivalTime: at(1, 21, 0)}, Outbound: &types.TransportLeg{DepartureTime: at(3, 8, 0)}},
			want:   12,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, r.AvailableHours(tt.day, tt.timing), 1e-9)
		})
	}
}

func TestRebalance_MorningReturnFlightEmptiesLastDay(t *testing.T) {
	rec := &obs.Recorder{}
	r := NewRebalancer(DefaultConfig(), rec)
	in := []cluster.Cluster{day(1, "a", "b"), day(2, "c", "d"), day(3, "e", "f", "g")}

	out, rep := r.Rebalance(in, Timing{
		NumDays:  3,
		Outbound: &types.TransportLeg{Mode: types.ModeFlight, DepartureTime: at(3, 8, 0)},
	})

	require.Len(t, out, 3)
	require.Equal(t, 0, rep.Days[2].MaxPerDay)
	require.Empty(t, out[2].Members)
	require.Empty(t, rep.Dropped)
	require.Equal(t, 7, countMembers(out))
	require.Equal(t, 3, rep.Moved)
	require.Equal(t, 3, rec.Count(obs.KindCandidateMoved))

	// input must not be mutated
	require.Len(t, in[2].Members, 3)
}

func TestRebalance_DropsWhenNoReceiver(t *testing.T) {
	rec := &obs.Recorder{}
	r := NewRebalancer(DefaultConfig(), rec)
	out, rep := r.Rebalance([]cluster.Cluster{day(1, "a", "b")}, Timing{
		NumDays:  1,
		Outbound: &types.TransportLeg{Mode: types.ModeFlight, DepartureTime: at(1, 9, 0)},
	})

	require.Empty(t, out[0].Members)
	require.Equal(t, []types.ID{"a", "b"}, rep.Dropped)
	require.Equal(t, 2, rec.Count(obs.KindCandidateDropped))
}

func TestRebalance_NeverMovesIntoDayTrip(t *testing.T) {
	trip := day(2, "x1")
	trip.DayTrip = true
	in := []cluster.Cluster{day(1, "a", "b"), trip, day(3, "c")}

	out, rep := NewRebalancer(DefaultConfig(), nil).Rebalance(in, Timing{
		NumDays: 3,
		Inbound: &types.TransportLeg{Mode: types.ModeFlight, ArrivalTime: at(1, 21, 30)},
	})

	require.Equal(t, []types.ID{"x1"}, out[1].IDs())
	require.Len(t, out[2].Members, 3)
	require.Empty(t, rep.Dropped)
}

func TestRebalance_TrimsOverBudgetDayKeepingMustSee(t *testing.T) {
	var ids []string
	for i := 0; i < 10; i++ {
		ids = append(ids, fmt.Sprintf("m%d", i))
	}
	busy := day(1, ids...)
	// the last two in visit order are must-see and must stay
	busy.Members[8].MustSee = true
	busy.Members[9].MustSee = true

	out, rep := NewRebalancer(DefaultConfig(), nil).Rebalance([]cluster.Cluster{busy, day(2, "q")}, Timing{NumDays: 2})

	require.Equal(t, 8, rep.Days[0].MaxPerDay)
	require.Len(t, out[0].Members, 8)
	require.Len(t, out[1].Members, 3)
	require.ElementsMatch(t, []types.ID{"q", "m7", "m6"}, out[1].IDs())
}

func TestRebalance_PadsMissingDays(t *testing.T) {
	out, rep := NewRebalancer(DefaultConfig(), nil).Rebalance([]cluster.Cluster{day(1, "a", "b", "c")}, Timing{NumDays: 3})
	require.Len(t, out, 3)
	for i, d := range out {
		require.Equal(t, i+1, d.DayNumber)
	}
	require.Len(t, rep.Days, 3)
	require.Equal(t, 0, rep.Moved)
}
