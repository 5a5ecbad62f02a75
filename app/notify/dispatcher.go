package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/cima-comb/app/content"
	"github.com/lysyi3m/cima-comb/app/database"
)

type SubscriberLister interface {
	GetAllSubscribers(ctx context.Context) ([]database.Subscriber, error)
}

// Notifier delivers a batch of items to one subscriber.
type Notifier interface {
	Notify(ctx context.Context, sub database.Subscriber, items []database.Item) error
}

type Dispatcher struct {
	subscribers SubscriberLister
	notifier    Notifier
}

func NewDispatcher(subscribers SubscriberLister, notifier Notifier) *Dispatcher {
	return &Dispatcher{subscribers: subscribers, notifier: notifier}
}

// Dispatch sends every subscriber the items matching their preferences. A failed
// delivery is logged and does not stop the others.
func (d *Dispatcher) Dispatch(ctx context.Context, items []database.Item) error {
	if len(items) == 0 {
		return nil
	}

	subs, err := d.subscribers.GetAllSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load subscribers: %w", err)
	}

	delivered := 0
	for _, sub := range subs {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		matching := FilterForSubscriber(sub.Preferences, items)
		if len(matching) == 0 {
			continue
		}

		if err := d.notifier.Notify(ctx, sub, matching); err != nil {
			slog.Warn("Failed to notify subscriber", "user_id", sub.UserID, "items", len(matching), "error", err)
			continue
		}
		delivered++
	}

	slog.Info("Notifications dispatched", "items", len(items), "subscribers", len(subs), "delivered", delivered)
	return nil
}

// FilterForSubscriber keeps the items whose category the subscriber opted into.
func FilterForSubscriber(prefs database.Preferences, items []database.Item) []database.Item {
	var matching []database.Item
	for _, item := range items {
		if wants(prefs, content.Category(item.Category)) {
			matching = append(matching, item)
		}
	}
	return matching
}

func wants(prefs database.Preferences, category content.Category) bool {
	switch category {
	case content.CategoryMovie:
		return prefs.ReceiveMovies
	case content.CategorySeries:
		return prefs.ReceiveSeries
	case content.CategoryAnime:
		return prefs.ReceiveAnime
	}
	return false
}
