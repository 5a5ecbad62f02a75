package database

import (
	"context"
	"time"
)

type ItemStore interface {
	GetItemByURL(ctx context.Context, url string) (*Item, error)
	InsertItem(ctx context.Context, item Item) (int64, error)
	UpdateItem(ctx context.Context, item Item) error

	SearchItems(ctx context.Context, query string, limit int) ([]Item, error)
	GetRecentItems(ctx context.Context, category string, limit int) ([]Item, error)
	GetItemCount(ctx context.Context) (int, error)
	GetCategoryCounts(ctx context.Context) (map[string]int, error)

	DeleteStaleItems(ctx context.Context, before time.Time) (int64, error)
}

type StatusStore interface {
	RecordStatus(ctx context.Context, sourceName, status, errMsg string) error
	GetStatus(ctx context.Context, sourceName string) (*SourceStatus, error)
	GetAllStatuses(ctx context.Context) ([]SourceStatus, error)
}

type UserStore interface {
	UpsertSubscriber(ctx context.Context, sub Subscriber) error
	GetSubscriber(ctx context.Context, userID int64) (*Subscriber, error)
	GetAllSubscribers(ctx context.Context) ([]Subscriber, error)
	UpdatePreferences(ctx context.Context, userID int64, prefs Preferences) error

	AddFavorite(ctx context.Context, userID int64, url string) error
	RemoveFavorite(ctx context.Context, userID int64, url string) error
	GetFavorites(ctx context.Context, userID int64) ([]Item, error)

	AddRating(ctx context.Context, userID int64, url string, rating int) (*Item, error)
}
