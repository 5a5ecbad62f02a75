package database

import (
	"database/sql"
	"errors"
)

const (
	StatusActive  = "active"
	StatusFailed  = "failed"
	StatusUnknown = "unknown"
)

const (
	DefaultSearchLimit = 5
	MaxSearchLimit     = 50
)

// maxErrorLength bounds the error text kept per source.
const maxErrorLength = 500

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

// ChangedFields lists the mutable fields that differ between stored and fresh.
// NULL and empty strings are equal because absent values read back as "".
func ChangedFields(stored, fresh Item) []string {
	var changed []string
	if stored.Title != fresh.Title {
		changed = append(changed, "title")
	}
	if stored.ImageURL != fresh.ImageURL {
		changed = append(changed, "image_url")
	}
	if stored.Category != fresh.Category {
		changed = append(changed, "category")
	}
	if stored.Description != fresh.Description {
		changed = append(changed, "description")
	}
	if !sameYear(stored.ReleaseYear, fresh.ReleaseYear) {
		changed = append(changed, "release_year")
	}
	if stored.Genres != fresh.Genres {
		changed = append(changed, "genres")
	}
	return changed
}

func sameYear(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullYear(year *int) sql.NullInt64 {
	if year == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*year), Valid: true}
}

func yearFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	year := int(n.Int64)
	return &year
}

// ClampSearchLimit maps non-positive limits to the default and caps the rest.
func ClampSearchLimit(limit int) int {
	if limit < 1 {
		return DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return limit
}
