package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"wayfarer/internal/ai"
	"wayfarer/internal/geo"
	"wayfarer/internal/modules/assembler"
	"wayfarer/internal/modules/capacity"
	"wayfarer/internal/modules/cluster"
	"wayfarer/internal/modules/density"
	"wayfarer/internal/modules/enrich"
	"wayfarer/internal/modules/quality"
	"wayfarer/internal/obs"
	"wayfarer/internal/types"
)

// MaxTripDays bounds a single request.
const MaxTripDays = 30

var ErrBadRequest = errors.New("bad request")

// PlanRequest is the core input: typed result lists from the search
// collaborators plus the traveller's preferences.
type PlanRequest struct {
	Preferences   types.Preferences     `json:"preferences"`
	Candidates    []types.Candidate     `json:"candidates"`
	Meals         []types.MealCandidate `json:"meals,omitempty"`
	Accommodation *types.Accommodation  `json:"accommodation,omitempty"`
	Inbound       *types.TransportLeg   `json:"inbound,omitempty"`
	Outbound      *types.TransportLeg   `json:"outbound,omitempty"`
}

type Summary struct {
	TotalCost   float64    `json:"totalCost"`
	Activities  int        `json:"activities"`
	Moved       int        `json:"moved"`
	Dropped     []types.ID `json:"dropped,omitempty"`
	AdvisedDays int        `json:"advisedDays"`
}

type Itinerary struct {
	Days       []types.TripDay        `json:"days"`
	Validation types.ValidationResult `json:"validation"`
	Profile    density.Profile        `json:"profile"`
	Capacity   []capacity.DayCapacity `json:"capacity"`
	Summary    Summary                `json:"summary"`
}

type Options struct {
	Cluster        cluster.Config
	Capacity       capacity.Config
	Assembler      assembler.Config
	Quality        quality.Config
	AdvisorTimeout time.Duration
	// Advisor may be nil; days then keep their geographic order.
	Advisor ai.Advisor
	// Enricher may be nil; travel figures then stay haversine estimates.
	Enricher *enrich.Enricher
	Emit     obs.Emitter
}

func DefaultOptions() Options {
	return Options{
		Cluster:        cluster.DefaultConfig(),
		Capacity:       capacity.DefaultConfig(),
		Assembler:      assembler.DefaultConfig(),
		Quality:        quality.DefaultConfig(),
		AdvisorTimeout: 8 * time.Second,
	}
}

// TripPlanner runs the planning pipeline: profile, cluster, rebalance,
// advise, assemble, enrich and validate.
type TripPlanner struct {
	clusterer      *cluster.Clusterer
	rebalancer     *capacity.Rebalancer
	assembler      *assembler.Assembler
	gate           *quality.Gate
	advisor        ai.Advisor
	enricher       *enrich.Enricher
	emit           obs.Emitter
	advisorTimeout time.Duration
	now            func() time.Time
}

func NewTripPlanner(opts Options) *TripPlanner {
	emit := obs.OrNop(opts.Emit)
	advisor := opts.Advisor
	if advisor == nil {
		advisor = ai.Unavailable{}
	}
	return &TripPlanner{
		clusterer:      cluster.NewClusterer(opts.Cluster, emit),
		rebalancer:     capacity.NewRebalancer(opts.Capacity, emit),
		assembler:      assembler.NewAssembler(opts.Assembler, emit),
		gate:           quality.NewGate(opts.Quality, emit),
		advisor:        advisor,
		enricher:       opts.Enricher,
		emit:           emit,
		advisorTimeout: opts.AdvisorTimeout,
		now:            time.Now,
	}
}

// Plan builds the itinerary. The only errors are ErrBadRequest for malformed
// input; everything infeasible degrades into warnings.
func (p *TripPlanner) Plan(ctx context.Context, req PlanRequest) (*Itinerary, error) {
	began := time.Now()

	// 1. Validate and resolve the trip frame.
	prefs := req.Preferences
	numDays := prefs.DurationDays
	if numDays < 1 || numDays > MaxTripDays {
		return nil, fmt.Errorf("%w: durationDays must be between 1 and %d", ErrBadRequest, MaxTripDays)
	}
	switch prefs.Pacing {
	case "", types.PacingRelaxed, types.PacingModerate, types.PacingPacked:
	default:
		return nil, fmt.Errorf("%w: unknown pacing %q", ErrBadRequest, prefs.Pacing)
	}
	start, err := p.startDate(req)
	if err != nil {
		return nil, err
	}
	center, origin := anchors(req)

	// 2. Profile density and cluster into days.
	profile := density.Build(req.Candidates, numDays)
	clusters := p.clusterer.ClusterFrom(req.Candidates, numDays, center, origin, &profile)
	p.checkPartition(clusters, len(req.Candidates))

	// 3. Fit each day to the hours it really has.
	clusters, report := p.rebalancer.Rebalance(clusters, capacity.Timing{
		NumDays:  numDays,
		Start:    start,
		Inbound:  req.Inbound,
		Outbound: req.Outbound,
	})

	// 4. Optional advisory reordering and themes.
	advised := p.advise(ctx, clusters, start)

	// 5. Lay out every day.
	days := p.assembler.Assemble(assembler.TripInput{
		StartDate:     start,
		NumDays:       numDays,
		Pacing:        prefs.Pacing,
		Clusters:      clusters,
		Pool:          req.Candidates,
		Meals:         req.Meals,
		Accommodation: req.Accommodation,
		Inbound:       req.Inbound,
		Outbound:      req.Outbound,
	}, assembler.NewUsedSet())

	// 6. Directions enrichment, then the quality gate.
	if p.enricher != nil {
		days = p.enricher.Enrich(ctx, days)
	}
	validation, days := p.gate.Validate(days, quality.Context{Accommodation: req.Accommodation})

	it := &Itinerary{
		Days:       days,
		Validation: validation,
		Profile:    profile,
		Capacity:   report.Days,
		Summary:    summarize(days, report, advised),
	}
	p.emit.Emit(obs.Event{Kind: obs.KindPlanCompleted, Value: time.Since(began).Seconds()})
	return it, nil
}

// startDate picks the first day: the requested date, else the inbound
// arrival date, else today. Dates are taken in the timezone of the legs.
func (p *TripPlanner) startDate(req PlanRequest) (time.Time, error) {
	loc := time.UTC
	var arrival time.Time
	if req.Inbound != nil {
		if t, ok := req.Inbound.Arrival(); ok {
			arrival, loc = t, t.Location()
		}
	} else if req.Outbound != nil {
		if t, ok := req.Outbound.Departure(); ok {
			loc = t.Location()
		}
	}

	if s := strings.TrimSpace(req.Preferences.StartDate); s != "" {
		d, err := time.ParseInLocation(time.DateOnly, s, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: startDate must be YYYY-MM-DD", ErrBadRequest)
		}
		return d, nil
	}
	if !arrival.IsZero() {
		return types.Midnight(arrival), nil
	}
	return types.Midnight(p.now().In(loc)), nil
}

// anchors returns the city center used for day-trip detection and the point
// days are ordered outward from.
func anchors(req PlanRequest) (center, origin types.Point) {
	center = req.Preferences.Destination
	if !center.Valid() {
		pts := make([]types.Point, 0, len(req.Candidates))
		for _, c := range req.Candidates {
			if c.Point().Valid() {
				pts = append(pts, c.Point())
			}
		}
		center, _ = geo.Centroid(pts)
	}
	if !center.Valid() && req.Accommodation != nil {
		center = req.Accommodation.Point()
	}

	switch {
	case req.Inbound != nil && req.Inbound.Destination.Valid():
		origin = req.Inbound.Destination
	case req.Accommodation != nil && req.Accommodation.Point().Valid():
		origin = req.Accommodation.Point()
	default:
		origin = center
	}
	return center, origin
}

// checkPartition reports candidates placed on more than one day.
func (p *TripPlanner) checkPartition(clusters []cluster.Cluster, total int) {
	seen := make(map[types.ID]int, total)
	for _, cl := range clusters {
		for _, m := range cl.Members {
			if day, dup := seen[m.ID]; dup {
				p.emit.Emit(obs.Event{Kind: obs.KindScheduleDefect, Day: cl.DayNumber, Candidate: m.ID, Reason: fmt.Sprintf("also in day %d", day)})
				continue
			}
			seen[m.ID] = cl.DayNumber
		}
	}
}

// advise asks the advisor for each day's order and theme. Days it cannot
// help with keep their geographic order and get a generated theme.
func (p *TripPlanner) advise(ctx context.Context, clusters []cluster.Cluster, start time.Time) int {
	hinted := make([]bool, len(clusters))
	g := new(errgroup.Group)
	g.SetLimit(4)
	for i := range clusters {
		cl := &clusters[i]
		if len(cl.Members) == 0 {
			continue
		}
		g.Go(func() error {
			hinted[i] = p.adviseDay(ctx, cl, start)
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for i := range clusters {
		if hinted[i] {
			n++
		} else if clusters[i].Theme == "" {
			clusters[i].Theme = fallbackTheme(clusters[i])
		}
	}
	return n
}

func (p *TripPlanner) adviseDay(ctx context.Context, cl *cluster.Cluster, start time.Time) bool {
	callCtx, cancel := context.WithTimeout(ctx, p.advisorTimeout)
	defer cancel()

	brief := ai.DayBrief{
		DayNumber: cl.DayNumber,
		Date:      start.AddDate(0, 0, cl.DayNumber-1).Format(time.DateOnly),
		DayTrip:   cl.DayTrip,
		Stops:     cl.Members,
	}
	hint, err := p.advisor.ProposeOrder(callCtx, brief)
	if err != nil {
		p.emit.Emit(obs.Event{Kind: obs.KindAdvisorFallback, Day: cl.DayNumber, Reason: err.Error()})
		return false
	}
	if !hint.Valid(brief) || !cl.Reorder(hint.Order) {
		p.emit.Emit(obs.Event{Kind: obs.KindAdvisorFallback, Day: cl.DayNumber, Reason: "order is not a permutation"})
		return false
	}
	cl.Theme = hint.Theme
	return true
}

// fallbackTheme names a day after its most common category.
func fallbackTheme(cl cluster.Cluster) string {
	counts := make(map[string]int)
	for _, m := range cl.Members {
		if c := strings.TrimSpace(m.Category); c != "" {
			counts[strings.ToLower(c)]++
		}
	}
	cats := make([]string, 0, len(counts))
	for c := range counts {
		cats = append(cats, c)
	}
	slices.SortFunc(cats, func(a, b string) int {
		if counts[a] != counts[b] {
			return counts[b] - counts[a]
		}
		return strings.Compare(a, b)
	})

	theme := "Free exploration"
	if len(cats) > 0 {
		theme = upperFirst(cats[0]) + " highlights"
	}
	if cl.DayTrip {
		theme = "Day trip: " + theme
	}
	return theme
}

func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[n:]
}

func summarize(days []types.TripDay, report capacity.Report, advised int) Summary {
	s := Summary{Moved: report.Moved, Dropped: report.Dropped, AdvisedDays: advised}
	for _, d := range days {
		for _, it := range d.Items {
			s.TotalCost += it.EstimatedCost
			if it.Type == types.ItemActivity {
				s.Activities++
			}
		}
	}
	return s
}
