package ranking

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/david/opportunity-ranker/internal/models"
)

// DefaultSortOrder is the order used when none (or an unknown one) is given:
// descending for score-like keys, ascending for due date and title.
func DefaultSortOrder(key SortKey) SortOrder {
	switch key {
	case SortByTitle, SortByDueDate:
		return SortAsc
	default:
		return SortDesc
	}
}

// Sort returns a stably sorted copy of items. Records missing the sort key
// always go last, for both orders. An unknown key sorts by total score.
func Sort(items []models.ScoredOpportunity, key SortKey, order SortOrder) []models.ScoredOpportunity {
	if key == "" {
		key = SortByTotalScore
	}
	order = SortOrder(strings.ToLower(strings.TrimSpace(string(order))))
	if order != SortAsc && order != SortDesc {
		order = DefaultSortOrder(key)
	}

	out := slices.Clone(items)
	if out == nil {
		out = []models.ScoredOpportunity{}
	}

	var compare func(a, b models.ScoredOpportunity) int
	switch key {
	case SortByDueDate:
		compare = optionalCompare(func(o models.ScoredOpportunity) *time.Time { return o.DueDate }, compareTime, order)
	case SortByPostedDate:
		compare = optionalCompare(func(o models.ScoredOpportunity) *time.Time { return o.PostedDate }, compareTime, order)
	case SortByEstimatedValue:
		compare = optionalCompare(func(o models.ScoredOpportunity) *float64 { return o.EstimatedValue }, comparePtr[float64], order)
	case SortByTitle:
		compare = func(a, b models.ScoredOpportunity) int {
			return directed(strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)), order)
		}
	default:
		compare = func(a, b models.ScoredOpportunity) int {
			return directed(cmp.Compare(a.TotalScore, b.TotalScore), order)
		}
	}

	slices.SortStableFunc(out, compare)
	return out
}

// optionalCompare orders by a possibly-absent key, placing absent keys after
// present ones regardless of order.
func optionalCompare[T any](get func(models.ScoredOpportunity) *T, less func(a, b *T) int, order SortOrder) func(a, b models.ScoredOpportunity) int {
	return func(a, b models.ScoredOpportunity) int {
		ka, kb := get(a), get(b)
		switch {
		case ka == nil && kb == nil:
			return 0
		case ka == nil:
			return 1
		case kb == nil:
			return -1
		}
		return directed(less(ka, kb), order)
	}
}

func compareTime(a, b *time.Time) int {
	return a.Compare(*b)
}

func comparePtr[T cmp.Ordered](a, b *T) int {
	return cmp.Compare(*a, *b)
}

func directed(c int, order SortOrder) int {
	if order == SortDesc {
		return -c
	}
	return c
}
