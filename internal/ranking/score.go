// Package ranking turns a read-only collection of opportunity records and a
// declarative Query into a scored, filtered, sorted and paginated result.
//
// Pipeline: score -> filter -> sort -> paginate
//
// Every stage is a pure function. No stage mutates its input or keeps state
// between calls, so RunQuery is safe to call concurrently on shared records.
package ranking

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/david/opportunity-ranker/internal/models"
)

const (
	neutralScore = 50

	// urgencyBaseline is what past-due or undated records get. It is kept
	// above zero so they are not silently dropped by score thresholds.
	urgencyBaseline = 10
	urgencyFarOut   = 20
	urgencyHorizon  = 90 * 24 * time.Hour

	relevanceFloor  = 20
	agencyBonus     = 10
	valueScale      = 1_000_000.0
	competitorScale = 5.0
)

// normalizedWeights holds the four weights rescaled to sum to 1.
type normalizedWeights struct {
	Relevance   float64
	Urgency     float64
	Value       float64
	Competition float64
}

// normalizeWeights rescales w to sum to 1. Negative weights count as zero and
// an all-zero configuration falls back to an equal split.
func normalizeWeights(w models.ScoreWeights) normalizedWeights {
	r := float64(max(w.RelevanceWeight, 0))
	u := float64(max(w.UrgencyWeight, 0))
	v := float64(max(w.ValueWeight, 0))
	c := float64(max(w.CompetitionWeight, 0))

	sum := r + u + v + c
	if sum <= 0 {
		return normalizedWeights{Relevance: 0.25, Urgency: 0.25, Value: 0.25, Competition: 0.25}
	}
	return normalizedWeights{
		Relevance:   r / sum,
		Urgency:     u / sum,
		Value:       v / sum,
		Competition: c / sum,
	}
}

// Score computes the sub-scores and composite score for a single record.
// interests are the caller's interest terms used for relevance; now anchors
// urgency and status. Missing inputs degrade to neutral values, never errors.
func Score(rec models.OpportunityRecord, weights models.ScoreWeights, interests []string, now time.Time) models.ScoredOpportunity {
	out := models.ScoredOpportunity{OpportunityRecord: copyRecord(rec)}
	out.Status = models.EffectiveStatus(rec, now)

	relevance, relevanceWhy := relevanceScore(rec, interests)
	urgency, urgencyWhy := urgencyScore(rec.DueDate, now)
	value, valueWhy := valueScore(rec.EstimatedValue)
	competition, competitionWhy := competitionScore(rec.CompetitorCount)

	out.RelevanceScore = relevance
	out.UrgencyScore = urgency
	out.ValueScore = value
	out.CompetitionScore = competition
	out.ScoreExplanation = []string{relevanceWhy, urgencyWhy, valueWhy, competitionWhy}

	nw := normalizeWeights(weights)
	total := nw.Relevance*float64(relevance) +
		nw.Urgency*float64(urgency) +
		nw.Value*float64(value) +
		nw.Competition*float64(competition)
	out.TotalScore = clampScore(int(math.Round(total)))

	return out
}

// ScoreAll scores every record, preserving input order.
func ScoreAll(records []models.OpportunityRecord, weights models.ScoreWeights, interests []string, now time.Time) []models.ScoredOpportunity {
	scored := make([]models.ScoredOpportunity, len(records))
	for i, rec := range records {
		scored[i] = Score(rec, weights, interests, now)
	}
	return scored
}

func relevanceScore(rec models.OpportunityRecord, interests []string) (int, string) {
	terms := cleanTerms(interests)
	if len(terms) == 0 {
		return neutralScore, "No interest terms supplied (neutral relevance)"
	}

	text := strings.ToLower(strings.Join([]string{
		rec.Title,
		models.PlainText(rec.Description),
		strings.Join(rec.Keywords, " "),
	}, " \n "))
	agency := strings.ToLower(rec.AgencyName)

	var matched []string
	agencyMatch := false
	for _, term := range terms {
		inAgency := agency != "" && strings.Contains(agency, term)
		if inAgency {
			agencyMatch = true
		}
		if inAgency || strings.Contains(text, term) {
			matched = append(matched, term)
		}
	}

	score := relevanceFloor + int(math.Round(float64(100-relevanceFloor)*float64(len(matched))/float64(len(terms))))
	if agencyMatch {
		score += agencyBonus
	}
	score = clampScore(score)

	switch {
	case len(matched) == 0:
		return score, fmt.Sprintf("Matches none of %d interest terms", len(terms))
	case agencyMatch:
		return score, fmt.Sprintf("Matches %d of %d interest terms (%s), including the agency", len(matched), len(terms), strings.Join(matched, ", "))
	default:
		return score, fmt.Sprintf("Matches %d of %d interest terms (%s)", len(matched), len(terms), strings.Join(matched, ", "))
	}
}

func urgencyScore(due *time.Time, now time.Time) (int, string) {
	if due == nil {
		return urgencyBaseline, "No due date listed (low urgency)"
	}
	remaining := due.Sub(now)
	if remaining < 0 {
		return urgencyBaseline, "Past due (low urgency)"
	}
	if remaining >= urgencyHorizon {
		return urgencyFarOut, fmt.Sprintf("Due in %d days (low urgency)", daysUntil(remaining))
	}

	frac := 1 - float64(remaining)/float64(urgencyHorizon)
	score := clampScore(urgencyFarOut + int(math.Round(float64(100-urgencyFarOut)*frac)))

	days := daysUntil(remaining)
	switch {
	case days == 0:
		return score, "Due today (high urgency)"
	case score >= 75:
		return score, fmt.Sprintf("Due in %d days (high urgency)", days)
	case score >= 45:
		return score, fmt.Sprintf("Due in %d days (moderate urgency)", days)
	default:
		return score, fmt.Sprintf("Due in %d days (low urgency)", days)
	}
}

func valueScore(value *float64) (int, string) {
	if value == nil || math.IsNaN(*value) {
		return neutralScore, "No estimated value (neutral)"
	}
	if *value <= 0 {
		return 0, "Estimated value is zero"
	}

	score := clampScore(int(math.Round(100 * (1 - math.Exp(-*value/valueScale)))))
	return score, fmt.Sprintf("Estimated value %s", formatMoney(*value))
}

func competitionScore(competitors *int) (int, string) {
	if competitors == nil || *competitors < 0 {
		return neutralScore, "No competition signal (neutral)"
	}

	n := *competitors
	score := clampScore(int(math.Round(100 / (1 + float64(n)/competitorScale))))
	switch {
	case n == 0:
		return score, "No known competitors"
	case n == 1:
		return score, "1 estimated competitor"
	default:
		return score, fmt.Sprintf("%d estimated competitors", n)
	}
}

func cleanTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func daysUntil(d time.Duration) int {
	return int(d / (24 * time.Hour))
}

func formatMoney(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("$%.1fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("$%.0fK", v/1e3)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

func clampScore(s int) int {
	return min(max(s, 0), 100)
}

// copyRecord detaches the slice and pointer fields so a scored copy can never
// alias the caller's record.
func copyRecord(rec models.OpportunityRecord) models.OpportunityRecord {
	if rec.EstimatedValue != nil {
		v := *rec.EstimatedValue
		rec.EstimatedValue = &v
	}
	if rec.PostedDate != nil {
		t := *rec.PostedDate
		rec.PostedDate = &t
	}
	if rec.DueDate != nil {
		t := *rec.DueDate
		rec.DueDate = &t
	}
	if rec.CompetitorCount != nil {
		n := *rec.CompetitorCount
		rec.CompetitorCount = &n
	}
	if rec.Keywords != nil {
		rec.Keywords = append([]string(nil), rec.Keywords...)
	}
	return rec
}
