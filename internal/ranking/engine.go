package ranking

import (
	"time"

	"github.com/david/opportunity-ranker/internal/models"
)

// RunQuery scores, filters, sorts and paginates records according to q.
//
// The query is validated before any work is done; structural problems are
// returned together as an *InvalidQueryError. records is never modified.
func RunQuery(records []models.OpportunityRecord, q Query) (QueryResult, error) {
	if err := q.Validate(); err != nil {
		return QueryResult{}, err
	}

	now := q.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	scored := ScoreAll(records, q.Weights, q.InterestTerms, now)
	filtered := Filter(scored, q)
	sorted := Sort(filtered, q.SortBy, q.SortOrder)
	return Paginate(sorted, q.Page, q.PageSize)
}
