package harvest

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lysyi3m/cima-comb/app/database"
	"github.com/lysyi3m/cima-comb/app/source"
)

// NoItemsReason is recorded for sources whose listing page parsed but yielded nothing.
const NoItemsReason = "no items found on listing page"

// Listing is the outcome of one fetch stage.
type Listing struct {
	BySource   map[string][]source.Candidate
	Candidates []source.Candidate // flattened in source order
	Failed     int
}

type Fetcher struct {
	client   *Client
	statuses database.StatusStore
}

func NewFetcher(client *Client, statuses database.StatusStore) *Fetcher {
	return &Fetcher{client: client, statuses: statuses}
}

// FetchAll fetches every source's listing page concurrently and returns once all
// of them resolved. Failures are recorded per source and never abort the stage.
func (f *Fetcher) FetchAll(ctx context.Context, sources []source.Source) Listing {
	results := make([][]source.Candidate, len(sources))
	failed := make([]bool, len(sources))

	var wg sync.WaitGroup
	for i, s := range sources {
		wg.Add(1)
		go func(i int, s source.Source) {
			defer wg.Done()
			results[i], failed[i] = f.fetchSource(ctx, s)
		}(i, s)
	}
	wg.Wait()

	listing := Listing{BySource: make(map[string][]source.Candidate, len(sources))}
	for i, s := range sources {
		listing.BySource[s.Name] = results[i]
		listing.Candidates = append(listing.Candidates, results[i]...)
		if failed[i] {
			listing.Failed++
		}
	}
	return listing
}

func (f *Fetcher) fetchSource(ctx context.Context, s source.Source) ([]source.Candidate, bool) {
	extract := s.ExtractFunc()
	if extract == nil {
		slog.Error("No extractor registered", "source", s.Name, "extractor", s.Extractor)
		f.record(ctx, s.Name, database.StatusFailed, "unknown extractor "+s.Extractor)
		listingFetches.WithLabelValues(s.Name, "error").Inc()
		return nil, true
	}

	page, err := f.client.Fetch(ctx, s.URL, ListingTimeout)
	if err != nil {
		slog.Warn("Listing fetch failed", "source", s.Name, "url", s.URL, "error", err)
		f.record(ctx, s.Name, database.StatusFailed, err.Error())
		listingFetches.WithLabelValues(s.Name, "error").Inc()
		return nil, true
	}

	candidates := extract(page)
	if len(candidates) == 0 {
		slog.Warn("Listing page has no items", "source", s.Name, "url", s.URL)
		f.record(ctx, s.Name, database.StatusFailed, NoItemsReason)
		listingFetches.WithLabelValues(s.Name, "empty").Inc()
		return nil, true
	}

	for i := range candidates {
		candidates[i].Source = s.Name
		candidates[i].CategoryHint = s.CategoryHint
	}

	slog.Info("Listing fetched", "source", s.Name, "candidates", len(candidates))
	f.record(ctx, s.Name, database.StatusActive, "")
	listingFetches.WithLabelValues(s.Name, "success").Inc()
	return candidates, false
}

func (f *Fetcher) record(ctx context.Context, name, status, errMsg string) {
	// Status writes outlive cancellation of the run.
	if err := f.statuses.RecordStatus(context.WithoutCancel(ctx), name, status, errMsg); err != nil {
		slog.Error("Failed to record source status", "source", name, "error", err)
	}
}
