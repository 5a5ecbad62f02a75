package api

import (
	"context"
	"time"

	"github.com/lysyi3m/cima-comb/app/content"
	"github.com/lysyi3m/cima-comb/app/database"
	"github.com/lysyi3m/cima-comb/app/feed"
	"github.com/lysyi3m/cima-comb/app/harvest"
	"github.com/lysyi3m/cima-comb/app/source"
	"github.com/lysyi3m/cima-comb/app/tasks"
)

type GeneratorInterface interface {
	Run(category content.Category, items []database.Item) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type SourceCatalog interface {
	Sources() []source.Source
	Get(name string) (source.Source, bool)
	Count() int
}

var _ SourceCatalog = (*source.Registry)(nil)

type Prober interface {
	Probe(ctx context.Context, rawURL string) harvest.ProbeResult
}

type HarvestState interface {
	Running() bool
	LastReport() *harvest.Report
}

var _ HarvestState = (*harvest.Pipeline)(nil)

type Handler struct {
	items     database.ItemStore
	statuses  database.StatusStore
	users     database.UserStore
	sources   SourceCatalog
	generator GeneratorInterface
	prober    Prober
	harvest   HarvestState
	scheduler tasks.TaskSchedulerInterface
}

type HandlerDeps struct {
	Items     database.ItemStore
	Statuses  database.StatusStore
	Users     database.UserStore
	Sources   SourceCatalog
	Prober    Prober
	Harvest   HarvestState
	Scheduler tasks.TaskSchedulerInterface
}

type ItemResponse struct {
	ID            int64     `json:"id"`
	URL           string    `json:"url"`
	Title         string    `json:"title"`
	Source        string    `json:"source"`
	ImageURL      string    `json:"image_url"`
	Category      string    `json:"category"`
	Description   string    `json:"description,omitempty"`
	ReleaseYear   *int      `json:"release_year,omitempty"`
	Genres        []string  `json:"genres"`
	AverageRating float64   `json:"average_rating"`
	RatingCount   int       `json:"rating_count"`
	LastUpdated   time.Time `json:"last_updated"`
}

func newItemResponse(item database.Item) ItemResponse {
	genres := content.SplitGenres(item.Genres)
	if genres == nil {
		genres = []string{}
	}

	return ItemResponse{
		ID:            item.ID,
		URL:           item.URL,
		Title:         item.Title,
		Source:        item.Source,
		ImageURL:      item.ImageURL,
		Category:      item.Category,
		Description:   item.Description,
		ReleaseYear:   item.ReleaseYear,
		Genres:        genres,
		AverageRating: item.AverageRating,
		RatingCount:   item.RatingCount,
		LastUpdated:   item.LastUpdated,
	}
}

func newItemResponses(items []database.Item) []ItemResponse {
	responses := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, newItemResponse(item))
	}
	return responses
}

type SiteResponse struct {
	Name         string     `json:"name"`
	URL          string     `json:"url"`
	Extractor    string     `json:"extractor"`
	CategoryHint string     `json:"category_hint"`
	Enabled      bool       `json:"enabled"`
	Status       string     `json:"status"`
	LastAttempt  *time.Time `json:"last_attempt,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}

type SubscriberResponse struct {
	UserID        int64     `json:"user_id"`
	Username      string    `json:"username,omitempty"`
	FirstName     string    `json:"first_name,omitempty"`
	LastName      string    `json:"last_name,omitempty"`
	JoinDate      time.Time `json:"join_date"`
	ReceiveMovies bool      `json:"receive_movies"`
	ReceiveSeries bool      `json:"receive_series"`
	ReceiveAnime  bool      `json:"receive_anime"`
}

func newSubscriberResponse(sub database.Subscriber) SubscriberResponse {
	return SubscriberResponse{
		UserID:        sub.UserID,
		Username:      sub.Username,
		FirstName:     sub.FirstName,
		LastName:      sub.LastName,
		JoinDate:      sub.JoinDate,
		ReceiveMovies: sub.ReceiveMovies,
		ReceiveSeries: sub.ReceiveSeries,
		ReceiveAnime:  sub.ReceiveAnime,
	}
}

type ratingRequest struct {
	UserID int64  `json:"user_id" binding:"required"`
	URL    string `json:"url" binding:"required"`
	Rating int    `json:"rating" binding:"required"`
}

type favoriteRequest struct {
	UserID int64  `json:"user_id" binding:"required"`
	URL    string `json:"url" binding:"required"`
}

type subscriberRequest struct {
	UserID    int64  `json:"user_id" binding:"required"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// preferencesRequest leaves flags that are absent from the body untouched.
type preferencesRequest struct {
	ReceiveMovies *bool `json:"receive_movies"`
	ReceiveSeries *bool `json:"receive_series"`
	ReceiveAnime  *bool `json:"receive_anime"`
}
