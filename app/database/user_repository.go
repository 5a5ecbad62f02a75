package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// UserRepository handles subscribers, their favorites and their ratings
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertSubscriber registers a subscriber or refreshes their names, keeping preferences
func (r *UserRepository) UpsertSubscriber(ctx context.Context, sub Subscriber) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (user_id, username, first_name, last_name, join_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name
	`, sub.UserID, nullString(sub.Username), nullString(sub.FirstName), nullString(sub.LastName), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert subscriber: %w", err)
	}
	return nil
}

const subscriberColumns = `user_id, COALESCE(username, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
	join_date, receive_movies, receive_series, receive_anime`

func scanSubscriber(row rowScanner) (Subscriber, error) {
	var sub Subscriber
	err := row.Scan(&sub.UserID, &sub.Username, &sub.FirstName, &sub.LastName, &sub.JoinDate,
		&sub.ReceiveMovies, &sub.ReceiveSeries, &sub.ReceiveAnime)
	return sub, err
}

func (r *UserRepository) GetSubscriber(ctx context.Context, userID int64) (*Subscriber, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+subscriberColumns+` FROM users WHERE user_id = ?`, userID)
	sub, err := scanSubscriber(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber: %w", err)
	}
	return &sub, nil
}

func (r *UserRepository) GetAllSubscribers(ctx context.Context) ([]Subscriber, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+subscriberColumns+` FROM users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscribers: %w", err)
	}
	defer rows.Close()

	var subs []Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscriber row: %w", err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriber rows: %w", err)
	}

	return subs, nil
}

func (r *UserRepository) UpdatePreferences(ctx context.Context, userID int64, prefs Preferences) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET receive_movies = ?, receive_series = ?, receive_anime = ?
		WHERE user_id = ?
	`, prefs.ReceiveMovies, prefs.ReceiveSeries, prefs.ReceiveAnime, userID)
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("subscriber %d: %w", userID, ErrNotFound)
	}
	return nil
}

// AddFavorite is a no-op when the favorite already exists
func (r *UserRepository) AddFavorite(ctx context.Context, userID int64, url string) error {
	if err := r.requireUserAndItem(ctx, userID, url); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO favorites (user_id, movie_url, added_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, movie_url) DO NOTHING
	`, userID, url, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

func (r *UserRepository) RemoveFavorite(ctx context.Context, userID int64, url string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = ? AND movie_url = ?`, userID, url)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check removed rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("favorite %s: %w", url, ErrNotFound)
	}
	return nil
}

// GetFavorites returns the subscriber's favorite items, most recently added first
func (r *UserRepository) GetFavorites(ctx context.Context, userID int64) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.url, m.title, m.source, COALESCE(m.image_url, ''), COALESCE(m.category, ''),
		       COALESCE(m.description, ''), m.release_year, COALESCE(m.genres, ''),
		       m.average_rating, m.rating_count, m.last_updated
		FROM favorites f
		JOIN movies m ON m.url = f.movie_url
		WHERE f.user_id = ?
		ORDER BY f.added_at DESC, m.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites: %w", err)
	}

	return collectItems(rows)
}

// AddRating stores or replaces the subscriber's rating and recomputes the item aggregates
// in the same transaction. It returns the item with fresh aggregates.
func (r *UserRepository) AddRating(ctx context.Context, userID int64, url string, rating int) (*Item, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	if err := r.requireUserAndItem(ctx, userID, url); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ratings (user_id, movie_url, rating, rated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, movie_url) DO UPDATE SET
			rating = excluded.rating,
			rated_at = excluded.rated_at
	`, userID, url, rating, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to store rating: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE movies
		SET average_rating = (SELECT COALESCE(AVG(rating), 0) FROM ratings WHERE movie_url = ?),
		    rating_count = (SELECT COUNT(*) FROM ratings WHERE movie_url = ?)
		WHERE url = ?
	`, url, url, url)
	if err != nil {
		return nil, fmt.Errorf("failed to update rating aggregates: %w", err)
	}

	item, err := scanItem(tx.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM movies WHERE url = ?`, url))
	if err != nil {
		return nil, fmt.Errorf("failed to reload rated item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit rating: %w", err)
	}

	return &item, nil
}

func (r *UserRepository) requireUserAndItem(ctx context.Context, userID int64, url string) error {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE user_id = ?)`, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check subscriber: %w", err)
	}
	if !exists {
		return fmt.Errorf("subscriber %d: %w", userID, ErrNotFound)
	}

	err = r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM movies WHERE url = ?)`, url).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check item: %w", err)
	}
	if !exists {
		return fmt.Errorf("item %s: %w", url, ErrNotFound)
	}
	return nil
}
