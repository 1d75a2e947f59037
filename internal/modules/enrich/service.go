// README: Directions enrichment; fills reported travel figures on assembled days with bounded, rate-limited lookups.
package enrich

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"wayfarer/internal/geo"
	"wayfarer/internal/maps"
	"wayfarer/internal/modules/quality"
	"wayfarer/internal/obs"
	"wayfarer/internal/types"
)

// Directions looks up one leg.
type Directions interface {
	Leg(ctx context.Context, from, to types.Point, walk bool) (maps.Estimate, error)
}

type Config struct {
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
	// RatePerSec of zero disables rate limiting.
	RatePerSec float64 `yaml:"rate_per_sec"`
	Burst      int     `yaml:"burst"`
}

func DefaultConfig() Config {
	return Config{Concurrency: 4, Timeout: 2 * time.Second, RatePerSec: 10, Burst: 5}
}

type Enricher struct {
	cfg     Config
	dir     Directions
	cache   Cache
	limiter *rate.Limiter
	emit    obs.Emitter
}

// NewEnricher builds an enricher. cache may be nil.
func NewEnricher(cfg Config, dir Directions, cache Cache, emit obs.Emitter) *Enricher {
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	return &Enricher{
		cfg:     cfg,
		dir:     dir,
		cache:   cache,
		limiter: rate.NewLimiter(limit, max(cfg.Burst, 1)),
		emit:    obs.OrNop(emit),
	}
}

type job struct {
	day, item int
	from, to  types.Point
}

// Enrich returns copies of days whose route items carry the directions
// provider's distance and time for the leg from the previous stop. A leg that
// fails or times out keeps zero values, so the haversine estimate stands.
func (e *Enricher) Enrich(ctx context.Context, days []types.TripDay) []types.TripDay {
	out := make([]types.TripDay, len(days))
	var jobs []job
	for d, day := range days {
		out[d] = day.Clone()
		stops := quality.RouteStops(day.Items)
		for i := 1; i < len(stops); i++ {
			jobs = append(jobs, job{
				day:  d,
				item: stops[i],
				from: day.Items[stops[i-1]].Point(),
				to:   day.Items[stops[i]].Point(),
			})
		}
	}
	if e.dir == nil || len(jobs) == 0 {
		return out
	}

	g := new(errgroup.Group)
	g.SetLimit(max(e.cfg.Concurrency, 1))
	for _, j := range jobs {
		g.Go(func() error {
			est, ok := e.lookup(ctx, j)
			if !ok {
				return nil
			}
			it := &out[j.day].Items[j.item]
			it.TravelKm = math.Round(est.Km*100) / 100
			it.TravelMin = int(est.Duration.Round(time.Minute) / time.Minute)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (e *Enricher) lookup(ctx context.Context, j job) (maps.Estimate, bool) {
	walk := geo.DistanceKm(j.from, j.to) <= geo.WalkMaxKm
	key := legKey(j.from, j.to, walk)
	dayNum := j.day + 1

	if e.cache != nil {
		if est, ok, err := e.cache.Get(ctx, key); err == nil && ok {
			return est, true
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()
	if err := e.limiter.Wait(callCtx); err != nil {
		e.emit.Emit(obs.Event{Kind: obs.KindEnrichmentFallback, Day: dayNum, Reason: "rate limit: " + err.Error()})
		return maps.Estimate{}, false
	}
	est, err := e.dir.Leg(callCtx, j.from, j.to, walk)
	if err != nil {
		e.emit.Emit(obs.Event{Kind: obs.KindEnrichmentFallback, Day: dayNum, Reason: err.Error()})
		return maps.Estimate{}, false
	}

	if e.cache != nil {
		_ = e.cache.Set(ctx, key, est)
	}
	return est, true
}
