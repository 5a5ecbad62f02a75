package harvest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/cima-comb/app/content"
	"github.com/lysyi3m/cima-comb/app/database"
	"github.com/lysyi3m/cima-comb/app/source"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestReconciler(t *testing.T) (*Reconciler, *database.ItemRepository, *database.StatusRepository, *testClock) {
	t.Helper()
	db := newTestDB(t)
	items := database.NewItemRepository(db)
	statuses := database.NewStatusRepository(db)
	clock := &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	r := NewReconciler(items, statuses)
	r.now = clock.Now
	return r, items, statuses, clock
}

func okDetails(description string) Details {
	return Details{OK: true, Description: description}
}

func TestReconcileIdempotent(t *testing.T) {
	r, items, _, clock := newTestReconciler(t)
	ctx := context.Background()

	candidates := []source.Candidate{
		{Title: "فيلم الأكشن (2023) مترجم HD", URL: "https://s.example/1", ImageURL: "https://s.example/1.jpg", Source: "S", CategoryHint: content.HintMixed},
		{Title: "مسلسل الحياة", URL: "https://s.example/2", Source: "S", CategoryHint: content.HintMixed},
	}
	details := []Details{okDetails("وصف أول"), okDetails("وصف ثان")}

	added, summary := r.Reconcile(ctx, candidates, details)
	if len(added) != 2 || summary.New != 2 {
		t.Fatalf("Expected 2 new items, got %d (%+v)", len(added), summary)
	}
	if added[0].Title != "الأكشن" {
		t.Errorf("Expected normalized title, got %q", added[0].Title)
	}
	if added[0].ReleaseYear == nil || *added[0].ReleaseYear != 2023 {
		t.Errorf("Expected year recovered from raw title, got %v", added[0].ReleaseYear)
	}
	if added[1].Category != string(content.CategorySeries) {
		t.Errorf("Expected series category, got %s", added[1].Category)
	}

	first, _ := items.GetItemByURL(ctx, "https://s.example/1")

	clock.Advance(time.Hour)
	added, summary = r.Reconcile(ctx, candidates, details)
	if len(added) != 0 {
		t.Errorf("Expected no new items on second run, got %d", len(added))
	}
	if summary.Unchanged != 2 {
		t.Errorf("Expected 2 unchanged items, got %+v", summary)
	}

	second, _ := items.GetItemByURL(ctx, "https://s.example/1")
	if !second.LastUpdated.Equal(first.LastUpdated) {
		t.Errorf("Expected last_updated unchanged, got %v then %v", first.LastUpdated, second.LastUpdated)
	}
}

func TestReconcileDedupByURL(t *testing.T) {
	r, items, _, _ := newTestReconciler(t)
	ctx := context.Background()

	candidates := []source.Candidate{
		{Title: "العنوان الأول", URL: "https://s.example/same", Source: "S"},
		{Title: "العنوان الثاني", URL: "https://s.example/same", Source: "S"},
	}
	added, summary := r.Reconcile(ctx, candidates, []Details{okDetails(""), okDetails("")})

	if len(added) != 1 {
		t.Fatalf("Expected a single new item, got %d", len(added))
	}
	if added[0].Title != "العنوان الثاني" {
		t.Errorf("Expected latest title in result, got %q", added[0].Title)
	}
	if summary.New != 1 || summary.Updated != 1 {
		t.Errorf("Expected 1 new and 1 updated, got %+v", summary)
	}

	stored, _ := items.GetItemByURL(ctx, "https://s.example/same")
	if stored.Title != "العنوان الثاني" {
		t.Errorf("Expected stored latest title, got %q", stored.Title)
	}
	count, _ := items.GetItemCount(ctx)
	if count != 1 {
		t.Errorf("Expected 1 stored item, got %d", count)
	}
}

func TestReconcileChangeDetection(t *testing.T) {
	r, items, _, clock := newTestReconciler(t)
	ctx := context.Background()

	candidates := []source.Candidate{{Title: "الرحلة", URL: "https://s.example/1", Source: "S", CategoryHint: "فيلم"}}
	r.Reconcile(ctx, candidates, []Details{okDetails("قديم")})
	before, _ := items.GetItemByURL(ctx, "https://s.example/1")

	clock.Advance(time.Hour)
	added, summary := r.Reconcile(ctx, candidates, []Details{okDetails("جديد")})
	if len(added) != 0 || summary.Updated != 1 {
		t.Fatalf("Expected one update and no new items, got %d new (%+v)", len(added), summary)
	}

	after, _ := items.GetItemByURL(ctx, "https://s.example/1")
	if after.Description != "جديد" {
		t.Errorf("Expected updated description, got %q", after.Description)
	}
	if !after.LastUpdated.After(before.LastUpdated) {
		t.Errorf("Expected fresh last_updated, got %v then %v", before.LastUpdated, after.LastUpdated)
	}
}

func TestReconcileCategoryHintWins(t *testing.T) {
	r, _, _, _ := newTestReconciler(t)

	candidates := []source.Candidate{{Title: "مسلسل قصير", URL: "https://s.example/series/1", Source: "S", CategoryHint: "فيلم"}}
	added, _ := r.Reconcile(context.Background(), candidates, []Details{okDetails("")})

	if len(added) != 1 || added[0].Category != "فيلم" {
		t.Errorf("Expected hint category, got %+v", added)
	}
}

func TestReconcileRecordsDetailFailure(t *testing.T) {
	r, items, statuses, _ := newTestReconciler(t)
	ctx := context.Background()

	candidates := []source.Candidate{{Title: "الرحلة", URL: "https://s.example/1", Source: "S"}}
	year := 2010
	r.Reconcile(ctx, candidates, []Details{{OK: true, Description: "وصف", Genres: "دراما", ReleaseYear: &year}})

	added, summary := r.Reconcile(ctx, candidates, []Details{{Err: errors.New("unexpected status 503")}})
	if len(added) != 0 || summary.Unchanged != 1 {
		t.Errorf("Expected stored details kept on detail failure, got %+v", summary)
	}

	stored, _ := items.GetItemByURL(ctx, "https://s.example/1")
	if stored.Description != "وصف" || stored.Genres != "دراما" || stored.ReleaseYear == nil {
		t.Errorf("Expected enrichment fields preserved, got %+v", stored)
	}

	status, _ := statuses.GetStatus(ctx, "S")
	if status == nil || status.Status != database.StatusFailed {
		t.Fatalf("Expected failed status, got %+v", status)
	}
	if !strings.HasPrefix(status.LastError, "detail page: ") {
		t.Errorf("Expected detail page reason, got %q", status.LastError)
	}
}

type failingItemStore struct {
	database.ItemStore
	failURL string
}

func (s failingItemStore) InsertItem(ctx context.Context, item database.Item) (int64, error) {
	if item.URL == s.failURL {
		return 0, errors.New("disk I/O error")
	}
	return s.ItemStore.InsertItem(ctx, item)
}

func TestReconcileContinuesAfterStorageError(t *testing.T) {
	db := newTestDB(t)
	items := database.NewItemRepository(db)
	statuses := database.NewStatusRepository(db)
	r := NewReconciler(failingItemStore{ItemStore: items, failURL: "https://bad.example/1"}, statuses)
	ctx := context.Background()

	candidates := []source.Candidate{
		{Title: "أ", URL: "https://bad.example/1", Source: "Bad"},
		{Title: "ب", URL: "https://good.example/1", Source: "Good"},
	}
	added, summary := r.Reconcile(ctx, candidates, []Details{okDetails(""), okDetails("")})

	if len(added) != 1 || added[0].URL != "https://good.example/1" {
		t.Errorf("Expected only the good item, got %+v", added)
	}
	if summary.Failed != 1 {
		t.Errorf("Expected 1 failure, got %+v", summary)
	}

	bad, _ := statuses.GetStatus(ctx, "Bad")
	if bad == nil || bad.Status != database.StatusFailed || !strings.Contains(bad.LastError, "disk I/O error") {
		t.Errorf("Expected storage failure recorded, got %+v", bad)
	}
	good, _ := statuses.GetStatus(ctx, "Good")
	if good == nil || good.Status != database.StatusActive {
		t.Errorf("Expected active status, got %+v", good)
	}
}

func TestReconcileStopsWhenCancelled(t *testing.T) {
	r, items, _, _ := newTestReconciler(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	added, _ := r.Reconcile(ctx, []source.Candidate{{Title: "أ", URL: "u1", Source: "S"}}, []Details{okDetails("")})
	if len(added) != 0 {
		t.Errorf("Expected nothing reconciled, got %d", len(added))
	}
	count, _ := items.GetItemCount(context.Background())
	if count != 0 {
		t.Errorf("Expected empty store, got %d", count)
	}
}
