package harvest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lysyi3m/cima-comb/app/source"
)

type countingEnricher struct {
	mu    sync.Mutex
	calls map[string]int
}

func (e *countingEnricher) Enrich(_ context.Context, c source.Candidate, _ string) Details {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.calls == nil {
		e.calls = make(map[string]int)
	}
	e.calls[c.URL]++
	return Details{OK: true, Description: "about " + c.URL}
}

func TestEnrichAllKeepsOrderAndFetchesEachURLOnce(t *testing.T) {
	candidates := []source.Candidate{
		{URL: "https://a.example/1"},
		{URL: "https://b.example/2"},
		{URL: "https://a.example/1"},
		{URL: "https://c.example/3"},
	}
	enricher := &countingEnricher{}

	results := EnrichAll(context.Background(), enricher, candidates, PoolConfig{Workers: 3})

	if len(results) != len(candidates) {
		t.Fatalf("Expected %d results, got %d", len(candidates), len(results))
	}
	for i, c := range candidates {
		if results[i].Description != "about "+c.URL {
			t.Errorf("Result %d: expected details for %s, got %q", i, c.URL, results[i].Description)
		}
	}
	if enricher.calls["https://a.example/1"] != 1 {
		t.Errorf("Expected duplicate URL fetched once, got %d", enricher.calls["https://a.example/1"])
	}
	if len(enricher.calls) != 3 {
		t.Errorf("Expected 3 distinct fetches, got %d", len(enricher.calls))
	}
}

func TestEnrichAllSpacesRequestsPerHost(t *testing.T) {
	candidates := []source.Candidate{
		{URL: "https://a.example/1"},
		{URL: "https://a.example/2"},
		{URL: "https://a.example/3"},
	}

	start := time.Now()
	EnrichAll(context.Background(), &countingEnricher{}, candidates, PoolConfig{Workers: 3, Delay: 50 * time.Millisecond})
	elapsed := time.Since(start)

	if elapsed < 90*time.Millisecond {
		t.Errorf("Expected same-host requests to be spaced, finished in %v", elapsed)
	}
}

func TestEnrichAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	enricher := &countingEnricher{}
	results := EnrichAll(ctx, enricher, []source.Candidate{{URL: "u1"}, {URL: "u2"}}, PoolConfig{Workers: 2})

	for i, d := range results {
		if d.OK || !errors.Is(d.Err, context.Canceled) {
			t.Errorf("Result %d: expected cancelled enrichment, got %+v", i, d)
		}
	}
	if len(enricher.calls) != 0 {
		t.Errorf("Expected no fetches after cancellation, got %d", len(enricher.calls))
	}
}

func TestEnrichAllDeadlineBeforeFetch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	candidates := []source.Candidate{
		{URL: "https://a.example/1"},
		{URL: "https://a.example/2"},
	}
	results := EnrichAll(ctx, &countingEnricher{}, candidates, PoolConfig{Workers: 2, Delay: 300 * time.Millisecond})

	ok, skipped := 0, 0
	for _, d := range results {
		switch {
		case d.OK:
			ok++
		case errors.Is(d.Err, errDeadlineBeforeFetch):
			skipped++
		default:
			t.Errorf("Expected deadline skip, got %v", d.Err)
		}
	}
	if ok != 1 || skipped != 1 {
		t.Errorf("Expected one fetch and one deadline skip, got %d and %d", ok, skipped)
	}
}
