package ranking

import (
	"strings"

	"github.com/david/opportunity-ranker/internal/models"
)

type predicate func(models.ScoredOpportunity) bool

// Filter returns the items that satisfy every filter set on q, in input order.
// Unset filters are pass-throughs, so an empty query returns a copy of items.
func Filter(items []models.ScoredOpportunity, q Query) []models.ScoredOpportunity {
	preds := buildPredicates(q)

	out := make([]models.ScoredOpportunity, 0, len(items))
	for _, item := range items {
		if matchesAll(item, preds) {
			out = append(out, item)
		}
	}
	return out
}

// buildPredicates orders the active filters cheapest-first; numeric checks
// run before the substring search.
func buildPredicates(q Query) []predicate {
	var preds []predicate

	if q.ScoreThreshold != nil {
		threshold := *q.ScoreThreshold
		preds = append(preds, func(o models.ScoredOpportunity) bool {
			return o.TotalScore >= threshold
		})
	}

	if r := q.ValueRange; r != nil && (r.Min != nil || r.Max != nil) {
		preds = append(preds, valueRangePredicate(*r))
	}

	if status := normalizeEnum(q.StatusFilter); status != "" && status != FilterAll {
		preds = append(preds, func(o models.ScoredOpportunity) bool {
			return string(o.Status) == status
		})
	}

	if source := normalizeEnum(q.SourceTypeFilter); source != "" && source != FilterAll {
		preds = append(preds, func(o models.ScoredOpportunity) bool {
			return string(o.SourceType) == source
		})
	}

	if term := strings.ToLower(strings.TrimSpace(q.SearchTerm)); term != "" {
		preds = append(preds, func(o models.ScoredOpportunity) bool {
			return matchesSearch(o.OpportunityRecord, term)
		})
	}

	return preds
}

// valueRangePredicate keeps records with no estimated value unless the range
// has a positive lower bound; a missing value is not assumed to be zero.
func valueRangePredicate(r ValueRange) predicate {
	return func(o models.ScoredOpportunity) bool {
		if o.EstimatedValue == nil {
			return r.Min == nil || *r.Min <= 0
		}
		v := *o.EstimatedValue
		if r.Min != nil && v < *r.Min {
			return false
		}
		if r.Max != nil && v > *r.Max {
			return false
		}
		return true
	}
}

// matchesSearch checks each field separately so a term never matches across
// a field boundary.
func matchesSearch(rec models.OpportunityRecord, term string) bool {
	fields := []string{rec.Title, models.PlainText(rec.Description), rec.AgencyName}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func matchesAll(item models.ScoredOpportunity, preds []predicate) bool {
	for _, p := range preds {
		if !p(item) {
			return false
		}
	}
	return true
}
