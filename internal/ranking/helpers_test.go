package ranking

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/david/opportunity-ranker/internal/models"
)

var testNow = time.Date(2026, 2, 12, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func testID(n int) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("opp-%d", n)))
}

func scoredWith(n, total int) models.ScoredOpportunity {
	return models.ScoredOpportunity{
		OpportunityRecord: models.OpportunityRecord{ID: testID(n), Title: fmt.Sprintf("Opportunity %02d", n)},
		TotalScore:        total,
	}
}

func ids(items []models.ScoredOpportunity) []uuid.UUID {
	out := make([]uuid.UUID, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func sampleRecords() []models.OpportunityRecord {
	return []models.OpportunityRecord{
		{
			ID:              testID(1),
			Title:           "Cybersecurity Operations Support",
			Description:     "<p>Managed <b>SOC</b> services for the agency network</p>",
			AgencyName:      "Department of Homeland Security",
			SourceType:      models.SourceFederalContract,
			SourceName:      "SAM.gov",
			EstimatedValue:  ptr(4_000_000.0),
			PostedDate:      ptr(testNow.AddDate(0, 0, -20)),
			DueDate:         ptr(testNow.AddDate(0, 0, 3)),
			CompetitorCount: ptr(3),
		},
		{
			ID:          testID(2),
			Title:       "Rural Broadband Expansion Grant",
			Description: "Funding for last-mile broadband in rural counties",
			AgencyName:  "Department of Agriculture",
			SourceType:  models.SourceFederalGrant,
			SourceName:  "Grants.gov",
			PostedDate:  ptr(testNow.AddDate(0, 0, -5)),
			DueDate:     ptr(testNow.AddDate(0, 0, 60)),
		},
		{
			ID:             testID(3),
			Title:          "bridge inspection services",
			Description:    "Statewide bridge inspection program",
			AgencyName:     "State DOT",
			SourceType:     models.SourceStateRFP,
			EstimatedValue: ptr(250_000.0),
			DueDate:        ptr(testNow.AddDate(0, 0, -1)),
			Status:         models.StatusActive,
		},
		{
			ID:              testID(4),
			Title:           "Annual Audit Services",
			AgencyName:      "City of Springfield",
			SourceType:      models.SourcePrivateRFP,
			EstimatedValue:  ptr(80_000.0),
			PostedDate:      ptr(testNow.AddDate(0, 0, 10)),
			CompetitorCount: ptr(20),
		},
	}
}
