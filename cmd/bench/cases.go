// README: Benchmark cases; partition, overlap and uniqueness properties over synthetic trips, plus latency and optional HTTP/Redis checks.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"wayfarer/internal/geo"
	"wayfarer/internal/maps"
	"wayfarer/internal/modules/cluster"
	"wayfarer/internal/modules/density"
	"wayfarer/internal/modules/enrich"
	"wayfarer/internal/service"
	"wayfarer/internal/types"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

type Runner struct {
	cfg     Config
	httpc   *http.Client
	redis   *redis.Client
	planner *service.TripPlanner
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:     cfg,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		planner: service.NewTripPlanner(service.DefaultOptions()),
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
		defer r.redis.Close()
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	return []TestCase{
		{Name: "clusters partition the candidates", Run: clusterPartition},
		{Name: "no candidate on two days", Run: func(ctx context.Context, r *Runner) Result {
			return r.forEachPlan(ctx, uniqueActivities)
		}},
		{Name: "no overlapping items within a day", Run: func(ctx context.Context, r *Runner) Result {
			return r.forEachPlan(ctx, noOverlap)
		}},
		{Name: "order index and score ranges", Run: func(ctx context.Context, r *Runner) Result {
			return r.forEachPlan(ctx, orderAndScore)
		}},
		{Name: "plan latency (p50, 5-day trip, 40 candidates)", Run: planLatency},
		{Name: "leg cache round trip", Run: cacheRoundTrip},
		{Name: "GET /health", Run: health},
		{Name: "POST /api/itineraries", Run: remotePlan},
	}
}

// scenario builds a trip around Kyoto with a few neighbourhoods and, on
// longer trips, a far excursion.
func scenario(rng *rand.Rand) service.PlanRequest {
	center := types.Point{Lat: 35.0116, Lng: 135.7681}
	days := 1 + rng.Intn(7)
	n := 3 + rng.Intn(12*days)

	hoods := make([]types.Point, 2+rng.Intn(4))
	for i := range hoods {
		hoods[i] = types.Point{Lat: center.Lat + (rng.Float64()-0.5)*0.08, Lng: center.Lng + (rng.Float64()-0.5)*0.1}
	}
	if days > 3 {
		hoods = append(hoods, types.Point{Lat: 34.6851, Lng: 135.8048})
	}

	cats := []string{"temple", "shrine", "museum", "market", "park"}
	cands := make([]types.Candidate, n)
	for i := range cands {
		h := hoods[rng.Intn(len(hoods))]
		cands[i] = types.Candidate{
			ID:          types.ID(fmt.Sprintf("c%03d", i)),
			Name:        fmt.Sprintf("Spot %d", i),
			Category:    cats[rng.Intn(len(cats))],
			Lat:         h.Lat + (rng.Float64()-0.5)*0.01,
			Lng:         h.Lng + (rng.Float64()-0.5)*0.01,
			DurationMin: 30 + 15*rng.Intn(8),
			Rating:      3.5 + rng.Float64()*1.5,
			ReviewCount: rng.Intn(5000),
			MustSee:     rng.Intn(10) == 0,
		}
	}

	return service.PlanRequest{
		Preferences: types.Preferences{
			DurationDays: days,
			StartDate:    "2026-05-04",
			Destination:  center,
			Pacing:       []types.Pacing{types.PacingRelaxed, types.PacingModerate, types.PacingPacked}[rng.Intn(3)],
		},
		Candidates: cands,
		Accommodation: &types.Accommodation{
			Name: "Kamo Inn", Lat: center.Lat - 0.005, Lng: center.Lng + 0.002,
			CheckInTime: "15:00", CheckOutTime: "11:00",
			BreakfastIncluded: rng.Intn(2) == 0,
		},
	}
}

func clusterPartition(_ context.Context, r *Runner) Result {
	rng := rand.New(rand.NewSource(r.cfg.Seed))
	c := cluster.NewClusterer(cluster.DefaultConfig(), nil)
	for i := 0; i < r.cfg.Scenarios; i++ {
		req := scenario(rng)
		days := req.Preferences.DurationDays
		profile := density.Build(req.Candidates, days)
		clusters := c.ClusterFrom(req.Candidates, days, req.Preferences.Destination, req.Accommodation.Point(), &profile)

		var got []types.ID
		for _, cl := range clusters {
			got = append(got, cl.IDs()...)
		}
		want := make([]types.ID, len(req.Candidates))
		for j, cand := range req.Candidates {
			want[j] = cand.ID
		}
		slices.Sort(got)
		slices.Sort(want)
		if !slices.Equal(got, want) {
			return Result{Status: statusFail, Note: fmt.Sprintf("scenario %d: %d ids clustered, want %d", i, len(got), len(want))}
		}
		if len(clusters) > days {
			return Result{Status: statusFail, Note: fmt.Sprintf("scenario %d: %d clusters for %d days", i, len(clusters), days)}
		}
	}
	return Result{Status: statusPass, Note: fmt.Sprintf("%d scenarios", r.cfg.Scenarios)}
}

type check func(it *service.Itinerary) error

func (r *Runner) forEachPlan(ctx context.Context, fn check) Result {
	rng := rand.New(rand.NewSource(r.cfg.Seed))
	for i := 0; i < r.cfg.Scenarios; i++ {
		it, err := r.planner.Plan(ctx, scenario(rng))
		if err != nil {
			return Result{Status: statusFail, Note: fmt.Sprintf("scenario %d: %v", i, err)}
		}
		if err := fn(it); err != nil {
			return Result{Status: statusFail, Note: fmt.Sprintf("scenario %d: %v", i, err)}
		}
	}
	return Result{Status: statusPass, Note: fmt.Sprintf("%d scenarios", r.cfg.Scenarios)}
}

func uniqueActivities(it *service.Itinerary) error {
	seen := map[types.ID]int{}
	for _, d := range it.Days {
		for _, item := range d.Items {
			if item.CandidateID == "" {
				continue
			}
			if day, ok := seen[item.CandidateID]; ok {
				return fmt.Errorf("%s on day %d and day %d", item.CandidateID, day, d.DayNumber)
			}
			seen[item.CandidateID] = d.DayNumber
		}
	}
	return nil
}

func noOverlap(it *service.Itinerary) error {
	for _, d := range it.Days {
		for i := 1; i < len(d.Items); i++ {
			prev, cur := d.Items[i-1], d.Items[i]
			if cur.StartTime < prev.EndTime {
				return fmt.Errorf("day %d: %q %s-%s overlaps %q %s-%s", d.DayNumber,
					prev.Title, prev.StartTime, prev.EndTime, cur.Title, cur.StartTime, cur.EndTime)
			}
		}
	}
	return nil
}

func orderAndScore(it *service.Itinerary) error {
	if s := it.Validation.Score; s < 0 || s > 100 {
		return fmt.Errorf("score %d out of range", s)
	}
	for _, d := range it.Days {
		for i, item := range d.Items {
			if item.OrderIndex != i {
				return fmt.Errorf("day %d: item %d has order index %d", d.DayNumber, i, item.OrderIndex)
			}
		}
	}
	return nil
}

func planLatency(ctx context.Context, r *Runner) Result {
	rng := rand.New(rand.NewSource(r.cfg.Seed))
	req := scenario(rng)
	for req.Preferences.DurationDays != 5 || len(req.Candidates) < 40 {
		req = scenario(rng)
	}
	req.Candidates = req.Candidates[:40]

	durs := make([]time.Duration, 0, r.cfg.Runs)
	for i := 0; i < r.cfg.Runs; i++ {
		start := time.Now()
		if _, err := r.planner.Plan(ctx, req); err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		durs = append(durs, time.Since(start))
	}
	slices.Sort(durs)
	return Result{Status: statusPass, Latency: durs[len(durs)/2], Note: fmt.Sprintf("%d runs, max %s", len(durs), durs[len(durs)-1])}
}

func cacheRoundTrip(ctx context.Context, r *Runner) Result {
	if r.redis == nil {
		return Result{Status: statusSkip, Note: "no redis address"}
	}
	cache := enrich.NewRedisCache(r.redis, time.Minute)
	key := fmt.Sprintf("bench:%d", time.Now().UnixNano())
	want := maps.Estimate{Km: 1.8, Duration: geo.MinTravel * 4}

	start := time.Now()
	if err := cache.Set(ctx, key, want); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	got, ok, err := cache.Get(ctx, key)
	lat := time.Since(start)
	_ = r.redis.Del(ctx, key).Err()
	if err != nil || !ok || got != want {
		return Result{Status: statusFail, Latency: lat, Note: fmt.Sprintf("got %+v ok=%v err=%v", got, ok, err)}
	}
	return Result{Status: statusPass, Latency: lat}
}

func health(ctx context.Context, r *Runner) Result {
	if r.cfg.BaseURL == "" {
		return Result{Status: statusSkip, Note: "no base url"}
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.BaseURL+"/health", nil)
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{Status: statusFail, Latency: time.Since(start), Note: resp.Status}
	}
	return Result{Status: statusPass, Latency: time.Since(start)}
}

func remotePlan(ctx context.Context, r *Runner) Result {
	if r.cfg.BaseURL == "" {
		return Result{Status: statusSkip, Note: "no base url"}
	}
	body, err := json.Marshal(scenario(rand.New(rand.NewSource(r.cfg.Seed))))
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/api/itineraries", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	defer resp.Body.Close()
	lat := time.Since(start)
	if resp.StatusCode != http.StatusCreated {
		return Result{Status: statusFail, Latency: lat, Note: resp.Status}
	}

	var it service.Itinerary
	if err := json.NewDecoder(resp.Body).Decode(&it); err != nil {
		return Result{Status: statusFail, Latency: lat, Note: err.Error()}
	}
	if err := uniqueActivities(&it); err != nil {
		return Result{Status: statusFail, Latency: lat, Note: err.Error()}
	}
	return Result{Status: statusPass, Latency: lat, Note: fmt.Sprintf("score %d", it.Validation.Score)}
}
