package matching

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/openride/backend/internal/domain/location"
	"github.com/openride/backend/internal/domain/route"
)

// Factor weights. They sum to 1 so the weighted total stays in 0-100.
const (
	weightLocation     = 0.40
	weightTime         = 0.30
	weightEfficiency   = 0.20
	weightAvailability = 0.10
)

// notableThreshold is the sub-score at which a factor earns a line in the
// explanation.
const notableThreshold = 80

// Query is a rider's search: where from, where to, and the acceptable
// departure window. Ephemeral, never persisted.
type Query struct {
	Origin      string
	Destination string
	WindowStart time.Time
	WindowEnd   time.Time
	RequestedAt time.Time
}

// Anchor is the query's preferred departure instant: the midpoint of the
// requested window.
func (q Query) Anchor() time.Time {
	return q.WindowStart.Add(q.WindowEnd.Sub(q.WindowStart) / 2)
}

// Breakdown carries the per-factor sub-scores, each 0-100.
type Breakdown struct {
	Location     int `json:"location"`
	Time         int `json:"time"`
	Efficiency   int `json:"efficiency"`
	Availability int `json:"availability"`
}

// MatchResult is one scored candidate. Created fresh per ranking call and
// never mutated afterwards.
type MatchResult struct {
	Route     *route.Route `json:"route"`
	Score     int          `json:"score"`
	Breakdown Breakdown    `json:"breakdown"`
	Reasons   []string     `json:"reasons"`
}

// Scorer computes explainable match scores against the static proximity
// table. It is a pure function of its inputs: same query and candidate in,
// same result out.
type Scorer struct {
	table *location.Table
}

// NewScorer creates a Scorer over the given proximity table.
func NewScorer(table *location.Table) *Scorer {
	return &Scorer{table: table}
}

// Score rates a candidate against a query. It never fails: unknown
// locations simply fall through to the lowest proximity tier.
func (s *Scorer) Score(q Query, r *route.Route) MatchResult {
	loc := s.locationScore(q, r)
	t := timeScore(q.Anchor(), r.Departure)
	eff := efficiencyScore(q, r)
	avail := availabilityScore(r)

	total := weightLocation*float64(loc) +
		weightTime*float64(t) +
		weightEfficiency*float64(eff) +
		weightAvailability*float64(avail)

	return MatchResult{
		Route: r,
		Score: int(math.Round(total)),
		Breakdown: Breakdown{
			Location:     loc,
			Time:         t,
			Efficiency:   eff,
			Availability: avail,
		},
		Reasons: reasons(loc, t, eff, avail, r),
	}
}

// locationScore averages the origin-side and destination-side similarity.
// Each side resolves by priority: exact (incl. a direct stop) > district >
// adjacent > broad region > none.
func (s *Scorer) locationScore(q Query, r *route.Route) int {
	origin := s.endpointScore(q.Origin, r.Origin, r.Stops)
	dest := s.endpointScore(q.Destination, r.Destination, r.Stops)
	return (origin + dest) / 2
}

func (s *Scorer) endpointScore(want, have string, stops []string) int {
	if want == have {
		return 100
	}
	for _, stop := range stops {
		if want == stop {
			return 100
		}
	}
	if s.table.SameDistrict(want, have) {
		return 80
	}
	if s.table.Adjacent(want, have) {
		return 60
	}
	for _, stop := range stops {
		if s.table.Adjacent(want, stop) {
			return 60
		}
	}
	if s.table.SameRegion(want, have) {
		return 40
	}
	return 0
}

// timeScore tiers the gap between the candidate's departure and the query
// anchor. Monotone: a smaller gap never scores lower.
func timeScore(anchor, departure time.Time) int {
	gap := departure.Sub(anchor)
	if gap < 0 {
		gap = -gap
	}
	switch {
	case gap <= 15*time.Minute:
		return 100
	case gap <= 30*time.Minute:
		return 80
	case gap <= 60*time.Minute:
		return 60
	case gap <= 120*time.Minute:
		return 40
	default:
		return 0
	}
}

// efficiencyScore is a declared heuristic on route directness, not a
// geometric computation. Both query endpoints served directly is a perfect
// route; otherwise more intermediate stops means more detour.
func efficiencyScore(q Query, r *route.Route) int {
	if onPath(q.Origin, r) && onPath(q.Destination, r) {
		return 100
	}
	switch n := len(r.Stops); {
	case n == 0:
		return 100
	case n <= 2:
		return 80
	case n <= 4:
		return 60
	default:
		return 40
	}
}

func onPath(area string, r *route.Route) bool {
	if area == r.Origin || area == r.Destination {
		return true
	}
	for _, stop := range r.Stops {
		if area == stop {
			return true
		}
	}
	return false
}

// Availability sub-weights. Seats dominate: a fuller route is a worse
// recommendation regardless of who drives it.
const (
	availWeightSeats    = 0.6
	availWeightRating   = 0.3
	availWeightVerified = 0.1
)

func availabilityScore(r *route.Route) int {
	var seats int
	switch avail := r.SeatsAvailable(); {
	case avail >= 3:
		seats = 100
	case avail == 2:
		seats = 60
	case avail == 1:
		seats = 30
	}

	var rating int
	switch {
	case r.DriverRating >= 4.5:
		rating = 100
	case r.DriverRating >= 4.0:
		rating = 70
	case r.DriverRating >= 3.0:
		rating = 40
	}

	verified := 0
	if r.DriverVerified {
		verified = 100
	}

	total := availWeightSeats*float64(seats) +
		availWeightRating*float64(rating) +
		availWeightVerified*float64(verified)
	return int(math.Round(total))
}

// reasons emits one line per notable sub-factor, highest sub-score first,
// so the explanation is reproducible from the breakdown alone.
func reasons(loc, t, eff, avail int, r *route.Route) []string {
	type factor struct {
		score int
		order int
		text  string
	}
	factors := []factor{
		{loc, 0, locationReason(loc)},
		{t, 1, timeReason(t)},
		{eff, 2, "Direct route with little or no detour"},
		{avail, 3, availabilityReason(r)},
	}
	sort.SliceStable(factors, func(i, j int) bool {
		if factors[i].score != factors[j].score {
			return factors[i].score > factors[j].score
		}
		return factors[i].order < factors[j].order
	})

	var out []string
	for _, f := range factors {
		if f.score >= notableThreshold {
			out = append(out, f.text)
		}
	}
	return out
}

func locationReason(score int) string {
	if score >= 100 {
		return "Exact match on pickup and dropoff"
	}
	return "Pickup and dropoff in the same district"
}

func timeReason(score int) string {
	if score >= 100 {
		return "Departs within 15 minutes of your preferred time"
	}
	return "Departs within 30 minutes of your preferred time"
}

func availabilityReason(r *route.Route) string {
	text := fmt.Sprintf("%d seats available", r.SeatsAvailable())
	if r.DriverVerified {
		text += ", verified driver"
	}
	if r.DriverRating >= 4.5 {
		text += fmt.Sprintf(", rated %.1f", r.DriverRating)
	}
	return text
}
