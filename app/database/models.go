package database

import (
	"time"
)

// Item is one discovered film, series or anime entry keyed by its detail page URL.
type Item struct {
	ID            int64
	URL           string
	Title         string
	Source        string
	ImageURL      string
	Category      string
	Description   string
	ReleaseYear   *int
	Genres        string // canonical ", " joined list
	AverageRating float64
	RatingCount   int
	LastUpdated   time.Time
}

type SourceStatus struct {
	SourceName  string
	LastAttempt *time.Time
	Status      string // active, failed, unknown
	LastError   string
}

type Subscriber struct {
	UserID    int64
	Username  string
	FirstName string
	LastName  string
	JoinDate  time.Time
	Preferences
}

type Preferences struct {
	ReceiveMovies bool
	ReceiveSeries bool
	ReceiveAnime  bool
}
