package models

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// recordFixture is the YAML shape of a record; dates are kept as strings so
// that any layout ParseDate understands can be used.
type recordFixture struct {
	ID              string   `yaml:"id"`
	Title           string   `yaml:"title"`
	Description     string   `yaml:"description"`
	AgencyName      string   `yaml:"agency_name"`
	SourceType      string   `yaml:"source_type"`
	SourceName      string   `yaml:"source_name"`
	EstimatedValue  *float64 `yaml:"estimated_value"`
	PostedDate      string   `yaml:"posted_date"`
	DueDate         string   `yaml:"due_date"`
	Status          string   `yaml:"status"`
	CompetitorCount *int     `yaml:"competitor_count"`
	Keywords        []string `yaml:"keywords"`
}

type fixtureFile struct {
	Opportunities []recordFixture `yaml:"opportunities"`
}

// LoadRecordsYAML decodes an `opportunities:` list into records.
// Records without an id get a deterministic one derived from their identifying
// fields. Two entries resolving to the same id are rejected.
func LoadRecordsYAML(r io.Reader) ([]OpportunityRecord, error) {
	var file fixtureFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if err == io.EOF {
			return []OpportunityRecord{}, nil
		}
		return nil, fmt.Errorf("decode records yaml: %w", err)
	}

	records := make([]OpportunityRecord, 0, len(file.Opportunities))
	seen := make(map[uuid.UUID]int, len(file.Opportunities))
	for i, f := range file.Opportunities {
		rec := OpportunityRecord{
			Title:           strings.TrimSpace(f.Title),
			Description:     f.Description,
			AgencyName:      normalizeSpace(f.AgencyName),
			SourceType:      SourceType(strings.ToLower(strings.TrimSpace(f.SourceType))),
			SourceName:      normalizeSpace(f.SourceName),
			EstimatedValue:  f.EstimatedValue,
			Status:          ParseStatus(f.Status),
			CompetitorCount: f.CompetitorCount,
			Keywords:        f.Keywords,
		}

		if f.ID != "" {
			id, err := uuid.Parse(f.ID)
			if err != nil {
				return nil, fmt.Errorf("opportunity %d: invalid id %q: %w", i, f.ID, err)
			}
			rec.ID = id
		}

		if f.PostedDate != "" {
			t, ok := ParseDate(f.PostedDate)
			if !ok {
				return nil, fmt.Errorf("opportunity %d: invalid posted_date %q", i, f.PostedDate)
			}
			rec.PostedDate = &t
		}
		if f.DueDate != "" {
			t, ok := ParseDate(f.DueDate)
			if !ok {
				return nil, fmt.Errorf("opportunity %d: invalid due_date %q", i, f.DueDate)
			}
			rec.DueDate = &t
		}

		if rec.ID == uuid.Nil {
			rec.ID = derivedID(rec, f.DueDate)
		}
		if prev, ok := seen[rec.ID]; ok {
			return nil, fmt.Errorf("opportunity %d: duplicate id %s (same as opportunity %d)", i, rec.ID, prev)
		}
		seen[rec.ID] = i

		records = append(records, rec)
	}

	return records, nil
}

// derivedID hashes the fields that tell two same-titled opportunities apart.
func derivedID(rec OpportunityRecord, rawDue string) uuid.UUID {
	key := strings.Join([]string{
		strings.ToLower(rec.Title),
		strings.ToLower(rec.AgencyName),
		string(rec.SourceType),
		strings.ToLower(rec.SourceName),
		strings.TrimSpace(rawDue),
	}, "\x1f")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key))
}
