package ranking

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/david/opportunity-ranker/internal/models"
)

type SortKey string

const (
	SortByTotalScore     SortKey = "totalScore"
	SortByDueDate        SortKey = "dueDate"
	SortByEstimatedValue SortKey = "estimatedValue"
	SortByPostedDate     SortKey = "postedDate"
	SortByTitle          SortKey = "title"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// FilterAll disables the status or source type filter.
const FilterAll = "all"

// ValueRange bounds EstimatedValue. Either end may be nil.
type ValueRange struct {
	Min *float64 `json:"min,omitempty" validate:"omitempty,gte=0"`
	Max *float64 `json:"max,omitempty" validate:"omitempty,gte=0"`
}

// Query is the full set of parameters for one ranking request.
// The zero value of every optional field means "not filtering on it".
type Query struct {
	SearchTerm       string              `json:"searchTerm,omitempty"`
	StatusFilter     string              `json:"statusFilter,omitempty" validate:"omitempty,oneof=all active closed upcoming"`
	SourceTypeFilter string              `json:"sourceTypeFilter,omitempty" validate:"omitempty,oneof=all federal_contract federal_grant state_rfp private_rfp scraped"`
	ValueRange       *ValueRange         `json:"valueRange,omitempty"`
	ScoreThreshold   *int                `json:"scoreThreshold,omitempty" validate:"omitempty,gte=0,lte=100"`
	SortBy           SortKey             `json:"sortBy,omitempty" validate:"omitempty,oneof=totalScore dueDate estimatedValue postedDate title"`
	SortOrder        SortOrder           `json:"sortOrder,omitempty"`
	Weights          models.ScoreWeights `json:"weights"`
	InterestTerms    []string            `json:"interestTerms,omitempty"`
	Page             int                 `json:"page"`
	PageSize         int                 `json:"pageSize" validate:"gt=0"`

	// Now anchors urgency and status derivation. Zero means the wall clock.
	Now time.Time `json:"-"`
}

// QueryResult is one page of ranked opportunities. Total and PageCount
// describe the filtered set before slicing.
type QueryResult struct {
	Items     []models.ScoredOpportunity `json:"items"`
	Total     int                        `json:"total"`
	Page      int                        `json:"page"`
	PageCount int                        `json:"pageCount"`
	PageSize  int                        `json:"pageSize"`
}

// FieldError names one offending query field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// InvalidQueryError reports every structural problem found in a query.
type InvalidQueryError struct {
	Fields []FieldError `json:"fields"`
}

func (e *InvalidQueryError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Reason)
	}
	return "invalid query: " + strings.Join(parts, "; ")
}

// Has reports whether field is among the offending fields.
func (e *InvalidQueryError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks q for structural misconfiguration and returns an
// *InvalidQueryError listing every violation, or nil.
// Weight sums are not checked here since scoring normalizes them.
func (q Query) Validate() error {
	var fields []FieldError

	// Filter matches these case-insensitively, so validate the same form.
	q.StatusFilter = normalizeEnum(q.StatusFilter)
	q.SourceTypeFilter = normalizeEnum(q.SourceTypeFilter)

	if err := validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &InvalidQueryError{Fields: []FieldError{{Field: "query", Reason: err.Error()}}}
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fieldPath(fe), Reason: reason(fe)})
		}
	}

	if r := q.ValueRange; r != nil && r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		fields = append(fields, FieldError{Field: "valueRange", Reason: "min must not exceed max"})
	}

	if len(fields) == 0 {
		return nil
	}
	return &InvalidQueryError{Fields: fields}
}

func normalizeEnum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// fieldPath drops the root struct name from the validator namespace,
// e.g. "Query.weights.relevance_weight" -> "weights.relevance_weight".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", strings.ReplaceAll(fe.Param(), " ", ", "), fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// ValidateWeights checks weights on their own, as the settings surface does
// before persisting them. Field names match those reported by Query.Validate.
func ValidateWeights(w models.ScoreWeights) error {
	err := validate.Struct(w)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &InvalidQueryError{Fields: []FieldError{{Field: "weights", Reason: err.Error()}}}
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: "weights." + fe.Field(), Reason: reason(fe)})
	}
	return &InvalidQueryError{Fields: fields}
}
