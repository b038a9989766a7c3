package matching

import (
	"sort"

	"github.com/openride/backend/internal/domain/route"
)

// Ranker orders candidate routes for a query using the Scorer. It has no
// mutable state and is safe for concurrent use.
type Ranker struct {
	scorer *Scorer
}

// NewRanker creates a Ranker around a Scorer.
func NewRanker(scorer *Scorer) *Ranker {
	return &Ranker{scorer: scorer}
}

// Rank filters, scores, and orders the candidates. Hard filters drop
// candidates outright before scoring: closed routes, zero seats, and
// departures outside the requested window never appear in the output.
// An empty result is a valid answer, not an error.
func (rk *Ranker) Rank(q Query, candidates []*route.Route) []MatchResult {
	results := make([]MatchResult, 0, len(candidates))
	for _, c := range candidates {
		if !Eligible(q, c) {
			continue
		}
		results = append(results, rk.scorer.Score(q, c))
	}

	// Stable sort, fully deterministic: score desc, then seats desc,
	// rating desc, and finally route ID so reruns agree on tie order.
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Route.SeatsAvailable() != b.Route.SeatsAvailable() {
			return a.Route.SeatsAvailable() > b.Route.SeatsAvailable()
		}
		if a.Route.DriverRating != b.Route.DriverRating {
			return a.Route.DriverRating > b.Route.DriverRating
		}
		return a.Route.ID.String() < b.Route.ID.String()
	})
	return results
}

// Eligible applies the pre-scoring hard filters.
func Eligible(q Query, r *route.Route) bool {
	if !r.OpenForBooking() {
		return false
	}
	if r.SeatsAvailable() <= 0 {
		return false
	}
	if r.Departure.Before(q.WindowStart) || r.Departure.After(q.WindowEnd) {
		return false
	}
	return true
}
