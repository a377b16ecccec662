package ranking

import (
	"fmt"

	"github.com/david/opportunity-ranker/internal/models"
)

// Paginate slices items into the 1-indexed page of size pageSize.
// page < 1 is treated as 1; a page past the end yields no items but still
// reports Total and PageCount. pageSize <= 0 is an *InvalidQueryError.
func Paginate(items []models.ScoredOpportunity, page, pageSize int) (QueryResult, error) {
	if pageSize <= 0 {
		return QueryResult{}, &InvalidQueryError{Fields: []FieldError{{
			Field:  "pageSize",
			Reason: fmt.Sprintf("must be greater than 0, got %d", pageSize),
		}}}
	}
	if page < 1 {
		page = 1
	}

	total := len(items)
	pageCount := total / pageSize
	if total%pageSize != 0 {
		pageCount++
	}

	result := QueryResult{
		Items:     []models.ScoredOpportunity{},
		Total:     total,
		Page:      page,
		PageCount: pageCount,
		PageSize:  pageSize,
	}

	// Compare page against pageCount before multiplying so huge page numbers
	// cannot overflow the offset.
	if page > pageCount {
		return result, nil
	}

	start := (page - 1) * pageSize
	end := total
	if pageSize < total-start {
		end = start + pageSize
	}
	result.Items = append(result.Items, items[start:end]...)
	return result, nil
}
