package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/microcosm-cc/bluemonday"

	"github.com/david/opportunity-ranker/internal/models"
)

var ErrNotFound = errors.New("not found")

// Store is the read side for opportunity records plus the per-user score
// weights settings. The ranking engine never talks to it directly.
type Store struct {
	pool   *pgxpool.Pool
	policy *bluemonday.Policy
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, policy: bluemonday.UGCPolicy()}
}

const selectCols = `id, title, description_html, agency_name, source_type::text, source_name,
	estimated_value, posted_date, due_date, status_raw, competitor_count, keywords`

// scanRecord maps one row onto a record. Upstream HTML descriptions are
// sanitized here so nothing downstream sees raw markup from a source.
func scanRecord(scan func(dest ...any) error, policy *bluemonday.Policy) (models.OpportunityRecord, error) {
	var rec models.OpportunityRecord
	var description, agencyName, sourceName, statusRaw *string
	var sourceType string

	err := scan(
		&rec.ID, &rec.Title, &description, &agencyName, &sourceType, &sourceName,
		&rec.EstimatedValue, &rec.PostedDate, &rec.DueDate, &statusRaw, &rec.CompetitorCount, &rec.Keywords,
	)
	if err != nil {
		return rec, err
	}

	rec.SourceType = models.SourceType(sourceType)
	if description != nil {
		rec.Description = policy.Sanitize(*description)
	}
	if agencyName != nil {
		rec.AgencyName = *agencyName
	}
	if sourceName != nil {
		rec.SourceName = *sourceName
	}
	if statusRaw != nil {
		rec.Status = models.ParseStatus(*statusRaw)
	}
	if rec.PostedDate != nil {
		t := rec.PostedDate.UTC()
		rec.PostedDate = &t
	}
	if rec.DueDate != nil {
		t := rec.DueDate.UTC()
		rec.DueDate = &t
	}

	return rec, nil
}

// ListRecords returns the full materialized collection in a stable order.
func (s *Store) ListRecords(ctx context.Context) ([]models.OpportunityRecord, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+selectCols+" FROM opportunities ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	records := []models.OpportunityRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows.Scan, s.policy)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return records, nil
}

func (s *Store) GetRecord(ctx context.Context, id uuid.UUID) (*models.OpportunityRecord, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+selectCols+" FROM opportunities WHERE id = $1", id)

	rec, err := scanRecord(row.Scan, s.policy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}
	return &rec, nil
}

// GetWeights returns the user's saved weights, or the defaults when the user
// has never saved any.
func (s *Store) GetWeights(ctx context.Context, userID uuid.UUID) (models.ScoreWeights, error) {
	var w models.ScoreWeights
	err := s.pool.QueryRow(ctx, `
		SELECT relevance_weight, urgency_weight, value_weight, competition_weight
		FROM score_weights WHERE user_id = $1
	`, userID).Scan(&w.RelevanceWeight, &w.UrgencyWeight, &w.ValueWeight, &w.CompetitionWeight)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DefaultScoreWeights(), nil
	}
	if err != nil {
		return models.ScoreWeights{}, fmt.Errorf("get weights: %w", err)
	}
	return w, nil
}

func (s *Store) SaveWeights(ctx context.Context, userID uuid.UUID, w models.ScoreWeights) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO score_weights (user_id, relevance_weight, urgency_weight, value_weight, competition_weight)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			relevance_weight = EXCLUDED.relevance_weight,
			urgency_weight = EXCLUDED.urgency_weight,
			value_weight = EXCLUDED.value_weight,
			competition_weight = EXCLUDED.competition_weight,
			updated_at = NOW()
	`, userID, w.RelevanceWeight, w.UrgencyWeight, w.ValueWeight, w.CompetitionWeight)
	if err != nil {
		return fmt.Errorf("save weights: %w", err)
	}
	return nil
}

const upsertRecordSQL = `
	INSERT INTO opportunities (
		id, title, description_html, agency_name, source_type, source_name,
		estimated_value, posted_date, due_date, status_raw, competitor_count, keywords
	) VALUES ($1, $2, $3, $4, $5::opportunity_source_type, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		description_html = EXCLUDED.description_html,
		agency_name = EXCLUDED.agency_name,
		source_type = EXCLUDED.source_type,
		source_name = EXCLUDED.source_name,
		estimated_value = EXCLUDED.estimated_value,
		posted_date = EXCLUDED.posted_date,
		due_date = EXCLUDED.due_date,
		status_raw = EXCLUDED.status_raw,
		competitor_count = EXCLUDED.competitor_count,
		keywords = EXCLUDED.keywords,
		updated_at = NOW()
`

// upsertArgs flattens rec into the positional arguments of upsertRecordSQL.
// Empty strings are stored as NULL and an unknown source type as 'scraped'.
func upsertArgs(rec models.OpportunityRecord) []any {
	sourceType := rec.SourceType
	if !sourceType.Valid() {
		sourceType = models.SourceScraped
	}
	keywords := rec.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return []any{
		rec.ID, rec.Title, nullIfEmpty(rec.Description), nullIfEmpty(rec.AgencyName),
		string(sourceType), nullIfEmpty(rec.SourceName),
		rec.EstimatedValue, rec.PostedDate, rec.DueDate, nullIfEmpty(string(rec.Status)),
		rec.CompetitorCount, keywords,
	}
}

// UpsertRecords writes records in a single transaction and returns how many
// were written. A failure rolls back the whole batch, and a batch repeating
// an id is rejected before anything is sent.
func (s *Store) UpsertRecords(ctx context.Context, records []models.OpportunityRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	seen := make(map[uuid.UUID]struct{}, len(records))
	for _, rec := range records {
		if _, ok := seen[rec.ID]; ok {
			return 0, fmt.Errorf("upsert records: duplicate id %s", rec.ID)
		}
		seen[rec.ID] = struct{}{}
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rec := range records {
			batch.Queue(upsertRecordSQL, upsertArgs(rec)...)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return 0, fmt.Errorf("upsert records: %w", err)
	}
	return len(records), nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
