package models

import (
	"strings"
	"time"
)

// ParseStatus maps a raw upstream status label onto the Status enum.
// Unrecognized labels map to "" so the status is derived from dates instead.
func ParseStatus(raw string) Status {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}

	closedHints := []string{"closed", "archived", "cancel", "awarded", "expired", "no longer accepting"}
	for _, hint := range closedHints {
		if strings.Contains(raw, hint) {
			return StatusClosed
		}
	}

	upcomingHints := []string{"forecast", "forthcoming", "upcoming", "coming soon", "anticipated"}
	for _, hint := range upcomingHints {
		if strings.Contains(raw, hint) {
			return StatusUpcoming
		}
	}

	activeHints := []string{"active", "open", "posted", "rolling"}
	for _, hint := range activeHints {
		if strings.Contains(raw, hint) {
			return StatusActive
		}
	}

	return ""
}

// EffectiveStatus resolves the status a record should be reported with at now.
// A record whose due date has passed is closed no matter what the source said.
func EffectiveStatus(rec OpportunityRecord, now time.Time) Status {
	if rec.DueDate != nil && rec.DueDate.Before(now) {
		return StatusClosed
	}

	switch rec.Status {
	case StatusActive, StatusClosed, StatusUpcoming:
		return rec.Status
	}

	if rec.PostedDate != nil && rec.PostedDate.After(now) {
		return StatusUpcoming
	}
	return StatusActive
}
