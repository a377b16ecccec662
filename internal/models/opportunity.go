package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type SourceType string

const (
	SourceFederalContract SourceType = "federal_contract"
	SourceFederalGrant    SourceType = "federal_grant"
	SourceStateRFP        SourceType = "state_rfp"
	SourcePrivateRFP      SourceType = "private_rfp"
	SourceScraped         SourceType = "scraped"
)

// SourceTypes lists every known source type in display order.
var SourceTypes = []SourceType{
	SourceFederalContract,
	SourceFederalGrant,
	SourceStateRFP,
	SourcePrivateRFP,
	SourceScraped,
}

func (s SourceType) Valid() bool {
	return slices.Contains(SourceTypes, s)
}

type Status string

const (
	StatusActive   Status = "active"
	StatusClosed   Status = "closed"
	StatusUpcoming Status = "upcoming"
)

// OpportunityRecord is a read-only opportunity as supplied by the record provider.
// Pointer fields are nil when the upstream source did not report them.
type OpportunityRecord struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	AgencyName      string     `json:"agency_name"`
	SourceType      SourceType `json:"source_type"`
	SourceName      string     `json:"source_name"`
	EstimatedValue  *float64   `json:"estimated_value"`
	PostedDate      *time.Time `json:"posted_date"`
	DueDate         *time.Time `json:"due_date"`
	Status          Status     `json:"status,omitempty"`
	CompetitorCount *int       `json:"competitor_count,omitempty"` // Estimated number of bidders, if known
	Keywords        []string   `json:"keywords,omitempty"`
}

// ScoredOpportunity is a per-query copy of a record annotated with its ranking scores.
type ScoredOpportunity struct {
	OpportunityRecord
	RelevanceScore   int      `json:"relevance_score"`
	UrgencyScore     int      `json:"urgency_score"`
	ValueScore       int      `json:"value_score"`
	CompetitionScore int      `json:"competition_score"`
	TotalScore       int      `json:"total_score"`
	ScoreExplanation []string `json:"score_explanation"`
}

// ScoreWeights are integer percentages for the four sub-scores.
// They should sum to 100; the ranking engine normalizes them when they do not.
type ScoreWeights struct {
	RelevanceWeight   int `json:"relevance_weight" yaml:"relevance" validate:"gte=0"`
	UrgencyWeight     int `json:"urgency_weight" yaml:"urgency" validate:"gte=0"`
	ValueWeight       int `json:"value_weight" yaml:"value" validate:"gte=0"`
	CompetitionWeight int `json:"competition_weight" yaml:"competition" validate:"gte=0"`
}

func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		RelevanceWeight:   40,
		UrgencyWeight:     30,
		ValueWeight:       20,
		CompetitionWeight: 10,
	}
}

func (w ScoreWeights) Sum() int {
	return w.RelevanceWeight + w.UrgencyWeight + w.ValueWeight + w.CompetitionWeight
}
