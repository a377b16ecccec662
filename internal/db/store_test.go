package db

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/david/opportunity-ranker/internal/models"
)

func TestScanRecord_MapsNullableColumns(t *testing.T) {
	id := uuid.New()
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("EST", -5*3600))
	value := 125000.0
	desc := `<p onclick="steal()">Road <b>resurfacing</b></p><script>alert(1)</script>`
	status := "Posted"

	scan := func(dest ...any) error {
		*dest[0].(*uuid.UUID) = id
		*dest[1].(*string) = "Road Resurfacing"
		*dest[2].(**string) = &desc
		*dest[3].(**string) = nil
		*dest[4].(*string) = "state_rfp"
		*dest[5].(**string) = nil
		*dest[6].(**float64) = &value
		*dest[7].(**time.Time) = nil
		*dest[8].(**time.Time) = &due
		*dest[9].(**string) = &status
		*dest[10].(**int) = nil
		*dest[11].(*[]string) = []string{"paving"}
		return nil
	}

	rec, err := scanRecord(scan, bluemonday.UGCPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.ID != id || rec.Title != "Road Resurfacing" {
		t.Fatalf("unexpected identity: %+v", rec)
	}
	if rec.SourceType != models.SourceStateRFP {
		t.Fatalf("expected state_rfp, got %s", rec.SourceType)
	}
	if rec.Status != models.StatusActive {
		t.Fatalf("expected active, got %q", rec.Status)
	}
	if rec.AgencyName != "" || rec.PostedDate != nil || rec.CompetitorCount != nil {
		t.Fatalf("expected null columns to stay empty: %+v", rec)
	}
	if rec.DueDate == nil || rec.DueDate.Location() != time.UTC || !rec.DueDate.Equal(due) {
		t.Fatalf("expected due date normalized to UTC, got %v", rec.DueDate)
	}
	if strings.Contains(rec.Description, "script") || strings.Contains(rec.Description, "onclick") {
		t.Fatalf("description not sanitized: %s", rec.Description)
	}
	if !strings.Contains(rec.Description, "<b>resurfacing</b>") {
		t.Fatalf("expected safe markup to survive: %s", rec.Description)
	}
}

func TestScanRecord_PropagatesScanError(t *testing.T) {
	boom := errors.New("boom")
	_, err := scanRecord(func(dest ...any) error { return boom }, bluemonday.UGCPolicy())
	if !errors.Is(err, boom) {
		t.Fatalf("expected scan error, got %v", err)
	}
}

func TestMigrationFiles_Ordered(t *testing.T) {
	files, err := migrationFiles()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) < 2 || files[0] != "001_opportunities.sql" || files[1] != "002_score_weights.sql" {
		t.Fatalf("unexpected migrations: %v", files)
	}
}

func TestUpsertArgs_NullsAndDefaults(t *testing.T) {
	rec := models.OpportunityRecord{
		ID:         uuid.New(),
		Title:      "Unlabelled Notice",
		SourceType: "newsletter",
	}

	args := upsertArgs(rec)
	if len(args) != strings.Count(upsertRecordSQL, "$") {
		t.Fatalf("expected %d args, got %d", strings.Count(upsertRecordSQL, "$"), len(args))
	}
	if args[4] != string(models.SourceScraped) {
		t.Fatalf("expected unknown source type stored as scraped, got %v", args[4])
	}
	if s, ok := args[2].(*string); !ok || s != nil {
		t.Fatalf("expected empty description stored as NULL, got %v", args[2])
	}
	if s, ok := args[9].(*string); !ok || s != nil {
		t.Fatalf("expected empty status stored as NULL, got %v", args[9])
	}
	if kw, ok := args[11].([]string); !ok || kw == nil {
		t.Fatalf("expected non-nil keywords, got %#v", args[11])
	}
}

func TestUpsertRecords_RejectsDuplicateIDs(t *testing.T) {
	id := uuid.New()
	records := []models.OpportunityRecord{
		{ID: id, Title: "IT Support", AgencyName: "City of Austin"},
		{ID: id, Title: "IT Support", AgencyName: "County of Travis"},
	}

	// The duplicate check runs before the pool is touched.
	n, err := (&Store{}).UpsertRecords(context.Background(), records)
	if err == nil || !strings.Contains(err.Error(), "duplicate id") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
	if n != 0 {
		t.Fatalf("expected nothing written, got %d", n)
	}
}
