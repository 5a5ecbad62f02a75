package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/lysyi3m/cima-comb/app/content"
	"github.com/lysyi3m/cima-comb/app/source"
	"golang.org/x/time/rate"
)

// DetailEnricher is what the pool needs from an Enricher.
type DetailEnricher interface {
	Enrich(ctx context.Context, c source.Candidate, normalizedTitle string) Details
}

type PoolConfig struct {
	Workers int
	// Delay is both the minimum spacing between requests to one host and the
	// pause a worker takes after each fetch.
	Delay time.Duration
}

// hostLimiters hands out one limiter per target host.
type hostLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
}

func newHostLimiters(delay time.Duration) *hostLimiters {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &hostLimiters{limiters: make(map[string]*rate.Limiter), limit: limit}
}

func (h *hostLimiters) get(rawURL string) *rate.Limiter {
	host := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Host != "" {
		host = parsed.Host
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	limiter, ok := h.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(h.limit, 1)
		h.limiters[host] = limiter
	}
	return limiter
}

var (
	errNotEnriched         = errors.New("enrichment stopped before fetch")
	errDeadlineBeforeFetch = errors.New("deadline reached before fetch")
)

// EnrichAll enriches candidates with a bounded worker pool. Each distinct URL is
// fetched once; the returned slice is aligned with candidates. Candidates left
// when ctx is cancelled come back with OK=false.
func EnrichAll(ctx context.Context, enricher DetailEnricher, candidates []source.Candidate, cfg PoolConfig) []Details {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	// First occurrence of each URL is the one fetched.
	firstIndex := make(map[string]int, len(candidates))
	var unique []int
	for i, c := range candidates {
		if _, seen := firstIndex[c.URL]; !seen {
			firstIndex[c.URL] = i
			unique = append(unique, i)
		}
	}

	fetched := make([]Details, len(candidates))
	for _, i := range unique {
		fetched[i] = Details{Err: errNotEnriched}
	}

	limiters := newHostLimiters(cfg.Delay)
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				c := candidates[i]
				if err := limiters.get(c.URL).Wait(ctx); err != nil {
					fetched[i] = Details{Err: skipReason(ctx)}
					continue
				}
				fetched[i] = enricher.Enrich(ctx, c, content.TitleOrPlaceholder(c.Title))
				if cfg.Delay > 0 {
					select {
					case <-ctx.Done():
					case <-time.After(cfg.Delay):
					}
				}
			}
		}()
	}

dispatch:
	for _, i := range unique {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		slog.Warn("Enrichment interrupted", "error", err)
		for _, i := range unique {
			if fetched[i].Err == errNotEnriched {
				fetched[i].Err = skipReason(ctx)
			}
		}
	}

	results := make([]Details, len(candidates))
	for i, c := range candidates {
		results[i] = fetched[firstIndex[c.URL]]
	}
	return results
}

// skipReason tells a run that was stopped apart from a limiter wait that would
// overrun the deadline while the context is still live.
func skipReason(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", errNotEnriched, err)
	}
	return errDeadlineBeforeFetch
}
