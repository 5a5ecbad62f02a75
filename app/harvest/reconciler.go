package harvest

import (
	"context"
	"log/slog"
	"time"

	"github.com/lysyi3m/cima-comb/app/content"
	"github.com/lysyi3m/cima-comb/app/database"
	"github.com/lysyi3m/cima-comb/app/source"
)

type Outcome string

const (
	OutcomeNew       Outcome = "new"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeFailed    Outcome = "failed"
)

// Summary counts reconciliation outcomes for one run.
type Summary struct {
	New       int
	Updated   int
	Unchanged int
	Failed    int
}

type Reconciler struct {
	items    database.ItemStore
	statuses database.StatusStore
	now      func() time.Time
}

func NewReconciler(items database.ItemStore, statuses database.StatusStore) *Reconciler {
	return &Reconciler{items: items, statuses: statuses, now: time.Now}
}

// Reconcile writes enriched candidates through to the store in order and returns
// the items that did not exist before this call. details must be aligned with
// candidates. A URL seen twice yields one entry carrying the latest values.
func (r *Reconciler) Reconcile(ctx context.Context, candidates []source.Candidate, details []Details) ([]database.Item, Summary) {
	var added []database.Item
	addedIndex := make(map[string]int)
	var summary Summary

	for i, c := range candidates {
		if ctx.Err() != nil {
			slog.Warn("Reconciliation interrupted", "processed", i, "remaining", len(candidates)-i)
			break
		}

		var d Details
		if i < len(details) {
			d = details[i]
		}

		item, outcome, err := r.apply(ctx, r.buildItem(c, d), d.OK)
		reconciledItems.WithLabelValues(string(outcome)).Inc()

		switch {
		case err != nil:
			summary.Failed++
			slog.Error("Failed to reconcile item", "source", c.Source, "url", c.URL, "error", err)
			r.record(ctx, c.Source, database.StatusFailed, err.Error())
			continue
		case !d.OK && d.Err != nil:
			r.record(ctx, c.Source, database.StatusFailed, "detail page: "+d.Err.Error())
		default:
			r.record(ctx, c.Source, database.StatusActive, "")
		}

		switch outcome {
		case OutcomeNew:
			summary.New++
			addedIndex[item.URL] = len(added)
			added = append(added, item)
		case OutcomeUpdated:
			summary.Updated++
			if pos, ok := addedIndex[item.URL]; ok {
				added[pos] = item
			}
		default:
			summary.Unchanged++
		}
	}

	return added, summary
}

// buildItem classifies on the raw title since normalization strips the category words.
func (r *Reconciler) buildItem(c source.Candidate, d Details) database.Item {
	title := content.TitleOrPlaceholder(c.Title)
	year := d.ReleaseYear
	if year == nil {
		year = content.YearFromTitle(c.Title)
	}
	return database.Item{
		URL:         c.URL,
		Title:       title,
		Source:      c.Source,
		ImageURL:    c.ImageURL,
		Category:    string(content.Classify(c.Title, c.URL, c.CategoryHint)),
		Description: d.Description,
		ReleaseYear: year,
		Genres:      d.Genres,
	}
}

// apply inserts or updates one row and returns the item as stored. When the
// detail page was not enriched, stored detail fields are kept.
func (r *Reconciler) apply(ctx context.Context, item database.Item, enriched bool) (database.Item, Outcome, error) {
	stored, err := r.items.GetItemByURL(ctx, item.URL)
	if err != nil {
		return item, OutcomeFailed, err
	}

	if stored == nil {
		item.LastUpdated = r.now().UTC()
		id, err := r.items.InsertItem(ctx, item)
		if err != nil {
			return item, OutcomeFailed, err
		}
		item.ID = id
		slog.Info("New item", "source", item.Source, "title", item.Title, "category", item.Category)
		return item, OutcomeNew, nil
	}

	item.ID = stored.ID
	item.Source = stored.Source
	item.AverageRating = stored.AverageRating
	item.RatingCount = stored.RatingCount
	if !enriched {
		item.Description = stored.Description
		item.Genres = stored.Genres
		if stored.ReleaseYear != nil {
			item.ReleaseYear = stored.ReleaseYear
		}
	}

	changed := database.ChangedFields(*stored, item)
	if len(changed) == 0 {
		item.LastUpdated = stored.LastUpdated
		return item, OutcomeUnchanged, nil
	}

	item.LastUpdated = r.now().UTC()
	if err := r.items.UpdateItem(ctx, item); err != nil {
		return item, OutcomeFailed, err
	}
	slog.Info("Updated item", "source", item.Source, "title", item.Title, "fields", changed)
	return item, OutcomeUpdated, nil
}

func (r *Reconciler) record(ctx context.Context, name, status, errMsg string) {
	if err := r.statuses.RecordStatus(context.WithoutCancel(ctx), name, status, errMsg); err != nil {
		slog.Error("Failed to record source status", "source", name, "error", err)
	}
}
