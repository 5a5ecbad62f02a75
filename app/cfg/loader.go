package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

// DefaultUserAgent is a desktop browser string; several sources refuse non-browser agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DBPath      string `long:"db-path" env:"DB_PATH" default:"./data/cima.db" description:"Path to the SQLite database file"`
	SourcesFile string `long:"sources-file" env:"SOURCES_FILE" default:"./sources.yml" description:"Optional YAML file overriding the built-in source registry"`

	// HTTP server
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://cima.example.com)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Harvesting
	UserAgent           string `long:"user-agent" env:"USER_AGENT" description:"User agent string for HTTP requests"`
	ScrapeIntervalHours int    `long:"scrape-interval" env:"SCRAPE_INTERVAL_HOURS" default:"6" description:"Harvest interval in hours"`
	DetailDelayMs       int    `long:"detail-delay" env:"DETAIL_DELAY_MS" default:"500" description:"Delay after each detail page fetch in milliseconds"`
	DetailWorkers       int    `long:"detail-workers" env:"DETAIL_WORKERS" default:"4" description:"Number of concurrent detail page fetches"`
	RetentionDays       int    `long:"retention-days" env:"RETENTION_DAYS" default:"90" description:"Days to keep items that were not updated"`
	CleanupSchedule     string `long:"cleanup-schedule" env:"CLEANUP_SCHEDULE" default:"0 3 * * *" description:"Cron expression for the retention sweep"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Africa/Cairo)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return LoadArgs(nil)
}

// LoadArgs parses the given arguments instead of os.Args when args is non-nil.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validate(&raw); err != nil {
		return nil, err
	}

	cfg := &Cfg{
		DBPath:              raw.DBPath,
		SourcesFile:         raw.SourcesFile,
		Port:                raw.Port,
		BaseUrl:             raw.BaseUrl,
		APIAccessKey:        raw.APIAccessKey,
		UserAgent:           cmp.Or(raw.UserAgent, DefaultUserAgent),
		ScrapeIntervalHours: raw.ScrapeIntervalHours,
		DetailDelay:         time.Duration(raw.DetailDelayMs) * time.Millisecond,
		DetailWorkers:       raw.DetailWorkers,
		RetentionDays:       raw.RetentionDays,
		CleanupSchedule:     raw.CleanupSchedule,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func validate(raw *rawCfg) error {
	positiveFields := map[string]int{
		"scrape interval": raw.ScrapeIntervalHours,
		"detail workers":  raw.DetailWorkers,
		"retention days":  raw.RetentionDays,
	}

	for fieldName, fieldValue := range positiveFields {
		if fieldValue <= 0 {
			return fmt.Errorf("%s must be positive", fieldName)
		}
	}

	if raw.DetailDelayMs < 0 {
		return fmt.Errorf("detail delay must be non-negative")
	}
	if raw.DBPath == "" {
		return fmt.Errorf("database path is required")
	}

	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
