package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/lysyi3m/cima-comb/app/database"
)

const batchHeader = "🎬 <b>أفلام جديدة متاحة:</b>"

// LogNotifier writes each delivery to the log instead of a chat transport.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, sub database.Subscriber, items []database.Item) error {
	slog.Info("Notification", "user_id", sub.UserID, "items", len(items))
	for _, message := range FormatBatch(items) {
		slog.Debug("Notification message", "user_id", sub.UserID, "text", message)
	}
	return nil
}

// FormatItem renders the HTML caption sent for one item.
func FormatItem(item database.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎬 <b>العنوان:</b> %s\n", html.EscapeString(item.Title))
	if item.ReleaseYear != nil {
		fmt.Fprintf(&b, "📅 <b>سنة الإصدار:</b> %d\n", *item.ReleaseYear)
	}
	fmt.Fprintf(&b, "🎬 <b>المصدر:</b> %s\n", html.EscapeString(item.Source))
	fmt.Fprintf(&b, "🎬 <b>الفئة:</b> %s\n", html.EscapeString(item.Category))
	if item.Genres != "" {
		fmt.Fprintf(&b, "🏷️ <b>النوع:</b> %s\n", html.EscapeString(item.Genres))
	}
	if description := strings.TrimSpace(item.Description); description != "" {
		fmt.Fprintf(&b, "\n📝 <b>الوصف:</b> %s\n", html.EscapeString(description))
	}
	return b.String()
}

// FormatBatch renders the header message followed by one caption per item.
func FormatBatch(items []database.Item) []string {
	messages := make([]string, 0, len(items)+1)
	messages = append(messages, batchHeader)
	for _, item := range items {
		messages = append(messages, FormatItem(item))
	}
	return messages
}
