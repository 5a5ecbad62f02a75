package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const itemColumns = `id, url, title, source, COALESCE(image_url, ''), COALESCE(category, ''),
	COALESCE(description, ''), release_year, COALESCE(genres, ''),
	average_rating, rating_count, last_updated`

// ItemRepository handles database operations for harvested items
type ItemRepository struct {
	db *DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (Item, error) {
	var item Item
	var year sql.NullInt64
	err := row.Scan(
		&item.ID, &item.URL, &item.Title, &item.Source, &item.ImageURL, &item.Category,
		&item.Description, &year, &item.Genres,
		&item.AverageRating, &item.RatingCount, &item.LastUpdated,
	)
	item.ReleaseYear = yearFromNull(year)
	return item, err
}

func collectItems(rows *sql.Rows) ([]Item, error) {
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

// GetItemByURL returns nil without error when no item has the URL
func (r *ItemRepository) GetItemByURL(ctx context.Context, url string) (*Item, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM movies WHERE url = ?`, url)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item by URL: %w", err)
	}
	return &item, nil
}

// InsertItem stores a new item and returns its row ID
func (r *ItemRepository) InsertItem(ctx context.Context, item Item) (int64, error) {
	lastUpdated := item.LastUpdated
	if lastUpdated.IsZero() {
		lastUpdated = time.Now()
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO movies (
			url, title, source, image_url, category, description,
			release_year, genres, last_updated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.URL, item.Title, item.Source, nullString(item.ImageURL), nullString(item.Category),
		nullString(item.Description), nullYear(item.ReleaseYear), nullString(item.Genres),
		lastUpdated.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted item ID: %w", err)
	}
	return id, nil
}

// UpdateItem rewrites the mutable fields of the item with the same URL and bumps last_updated
func (r *ItemRepository) UpdateItem(ctx context.Context, item Item) error {
	lastUpdated := item.LastUpdated
	if lastUpdated.IsZero() {
		lastUpdated = time.Now()
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE movies
		SET title = ?, image_url = ?, category = ?, description = ?,
		    release_year = ?, genres = ?, last_updated = ?
		WHERE url = ?
	`, item.Title, nullString(item.ImageURL), nullString(item.Category), nullString(item.Description),
		nullYear(item.ReleaseYear), nullString(item.Genres), lastUpdated.UTC(), item.URL)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("failed to update item %s: %w", item.URL, ErrNotFound)
	}

	return nil
}

// SearchItems matches query against title, description and genres, most recently updated first
func (r *ItemRepository) SearchItems(ctx context.Context, query string, limit int) ([]Item, error) {
	limit = ClampSearchLimit(limit)
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM movies
		WHERE title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR genres LIKE ? ESCAPE '\'
		ORDER BY last_updated DESC, id DESC
		LIMIT ?
	`, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}

	return collectItems(rows)
}

// GetRecentItems returns the newest items, optionally restricted to one category
func (r *ItemRepository) GetRecentItems(ctx context.Context, category string, limit int) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM movies
		WHERE ? = '' OR category = ?
		ORDER BY last_updated DESC, id DESC
		LIMIT ?
	`, category, category, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent items: %w", err)
	}

	return collectItems(rows)
}

// GetItemCount returns the total number of stored items
func (r *ItemRepository) GetItemCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

// GetCategoryCounts returns the number of items per category label
func (r *ItemRepository) GetCategoryCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(category, ''), COUNT(*)
		FROM movies
		GROUP BY COALESCE(category, '')
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get category counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts[category] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}

	return counts, nil
}

// DeleteStaleItems removes items not updated since before that nobody has favorited.
// Ratings of deleted items go with them.
func (r *ItemRepository) DeleteStaleItems(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM movies
		WHERE last_updated < ?
		  AND NOT EXISTS (SELECT 1 FROM favorites f WHERE f.movie_url = movies.url)
	`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale items: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted items: %w", err)
	}
	return deleted, nil
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
