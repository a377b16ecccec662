package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/david/opportunity-ranker/internal/models"
)

func scoredSample() []models.ScoredOpportunity {
	return ScoreAll(sampleRecords(), models.DefaultScoreWeights(), nil, testNow)
}

func TestFilter_EmptyQueryIsIdentity(t *testing.T) {
	items := scoredSample()
	out := Filter(items, Query{StatusFilter: FilterAll, SourceTypeFilter: FilterAll, SearchTerm: "   "})
	assert.Equal(t, items, out)

	out = Filter(items, Query{})
	assert.Equal(t, items, out)
}

func TestFilter_SearchTerm(t *testing.T) {
	items := scoredSample()

	tests := []struct {
		name     string
		term     string
		expected []int
	}{
		{"title case-insensitive", "BROADBAND", []int{2}},
		{"description html stripped", "managed soc", []int{1}},
		{"agency name", "springfield", []int{4}},
		{"matches several", "services", []int{1, 3, 4}},
		{"no match", "zeppelin", []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Filter(items, Query{SearchTerm: tt.term})
			expected := make([]models.ScoredOpportunity, 0)
			for _, n := range tt.expected {
				expected = append(expected, items[n-1])
			}
			assert.Equal(t, ids(expected), ids(out))
		})
	}
}

func TestFilter_StatusAndSourceType(t *testing.T) {
	items := scoredSample()

	closed := Filter(items, Query{StatusFilter: "closed"})
	require.Len(t, closed, 1)
	assert.Equal(t, testID(3), closed[0].ID, "past due record is closed even though marked active")

	upcoming := Filter(items, Query{StatusFilter: "upcoming"})
	require.Len(t, upcoming, 1)
	assert.Equal(t, testID(4), upcoming[0].ID)

	grants := Filter(items, Query{SourceTypeFilter: "federal_grant"})
	require.Len(t, grants, 1)
	assert.Equal(t, testID(2), grants[0].ID)

	both := Filter(items, Query{StatusFilter: "active", SourceTypeFilter: "state_rfp"})
	assert.Empty(t, both)
}

func TestFilter_ValueRange(t *testing.T) {
	items := scoredSample()

	tests := []struct {
		name     string
		r        ValueRange
		expected []int
	}{
		{"max only keeps undated value", ValueRange{Max: ptr(300_000.0)}, []int{2, 3, 4}},
		{"zero min keeps missing value", ValueRange{Min: ptr(0.0), Max: ptr(300_000.0)}, []int{2, 3, 4}},
		{"positive min drops missing value", ValueRange{Min: ptr(100_000.0)}, []int{1, 3}},
		{"bounds are inclusive", ValueRange{Min: ptr(80_000.0), Max: ptr(250_000.0)}, []int{3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Filter(items, Query{ValueRange: &tt.r})
			var expected []models.ScoredOpportunity
			for _, n := range tt.expected {
				expected = append(expected, items[n-1])
			}
			assert.Equal(t, ids(expected), ids(out))
		})
	}
}

func TestFilter_ScoreThresholdInclusive(t *testing.T) {
	items := []models.ScoredOpportunity{scoredWith(1, 79), scoredWith(2, 80), scoredWith(3, 95)}

	out := Filter(items, Query{ScoreThreshold: ptr(80)})
	assert.Equal(t, []int{80, 95}, []int{out[0].TotalScore, out[1].TotalScore})
	assert.Len(t, out, 2)
}

func TestFilter_PredicatesCommute(t *testing.T) {
	items := scoredSample()
	q := Query{SearchTerm: "services", ValueRange: &ValueRange{Max: ptr(1_000_000.0)}, StatusFilter: "closed"}

	all := Filter(items, q)
	stepwise := Filter(Filter(Filter(items, Query{StatusFilter: "closed"}), Query{SearchTerm: "services"}), Query{ValueRange: q.ValueRange})
	assert.Equal(t, ids(all), ids(stepwise))
	require.Len(t, all, 1)
	assert.Equal(t, testID(3), all[0].ID)
}
