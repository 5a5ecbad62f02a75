package cfg

import "time"

type Cfg struct {
	// Storage
	DBPath      string
	SourcesFile string

	// HTTP server
	Port         string
	BaseUrl      string
	APIAccessKey string

	// Harvesting
	UserAgent           string
	ScrapeIntervalHours int
	DetailDelay         time.Duration
	DetailWorkers       int
	RetentionDays       int
	CleanupSchedule     string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}

// ScrapeInterval returns the harvest period, never shorter than one hour.
func (c *Cfg) ScrapeInterval() time.Duration {
	if c.ScrapeIntervalHours <= 0 {
		return time.Hour
	}
	return time.Duration(c.ScrapeIntervalHours) * time.Hour
}

func (c *Cfg) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}
