package cfg

import (
	"testing"
	"time"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestLoadArgsDefaults(t *testing.T) {
	t.Setenv("TZ", "UTC")

	cfg, err := LoadArgs([]string{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.ScrapeIntervalHours != 6 {
		t.Errorf("Expected scrape interval 6, got %d", cfg.ScrapeIntervalHours)
	}
	if cfg.DetailDelay != 500*time.Millisecond {
		t.Errorf("Expected detail delay 500ms, got %v", cfg.DetailDelay)
	}
	if cfg.DetailWorkers != 4 {
		t.Errorf("Expected 4 detail workers, got %d", cfg.DetailWorkers)
	}
	if cfg.RetentionDays != 90 {
		t.Errorf("Expected retention 90 days, got %d", cfg.RetentionDays)
	}
	if cfg.CleanupSchedule != "0 3 * * *" {
		t.Errorf("Expected cleanup schedule '0 3 * * *', got '%s'", cfg.CleanupSchedule)
	}
	if cfg.UserAgent != DefaultUserAgent {
		t.Errorf("Expected default user agent, got '%s'", cfg.UserAgent)
	}
	if cfg.ScrapeInterval() != 6*time.Hour {
		t.Errorf("Expected interval 6h, got %v", cfg.ScrapeInterval())
	}
	if cfg.Retention() != 90*24*time.Hour {
		t.Errorf("Expected retention 2160h, got %v", cfg.Retention())
	}
	if Get() != cfg {
		t.Error("Expected Get to return the loaded configuration")
	}
}

func TestLoadArgsOverrides(t *testing.T) {
	t.Setenv("TZ", "UTC")
	t.Setenv("DETAIL_WORKERS", "8")

	cfg, err := LoadArgs([]string{"--scrape-interval", "12", "--detail-delay", "250", "--db-path", "/tmp/test.db"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.ScrapeIntervalHours != 12 {
		t.Errorf("Expected scrape interval 12, got %d", cfg.ScrapeIntervalHours)
	}
	if cfg.DetailDelay != 250*time.Millisecond {
		t.Errorf("Expected detail delay 250ms, got %v", cfg.DetailDelay)
	}
	if cfg.DetailWorkers != 8 {
		t.Errorf("Expected 8 detail workers from environment, got %d", cfg.DetailWorkers)
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("Expected DB path '/tmp/test.db', got '%s'", cfg.DBPath)
	}
}

func TestLoadArgsRejectsInvalidValues(t *testing.T) {
	t.Setenv("TZ", "UTC")

	tests := [][]string{
		{"--scrape-interval", "0"},
		{"--detail-workers", "0"},
		{"--retention-days=-1"},
		{"--detail-delay=-5"},
	}

	for _, args := range tests {
		if _, err := LoadArgs(args); err == nil {
			t.Errorf("Expected error for args %v", args)
		}
	}
}
