// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Scrape   ScrapeConfig   `mapstructure:"scrape"`
	Regions  RegionsConfig  `mapstructure:"regions"`
	Brewers  BrewersConfig  `mapstructure:"brewers"`
	API      APIConfig      `mapstructure:"api"`
	Backup   BackupConfig   `mapstructure:"backup"`
	Store    StoreConfig    `mapstructure:"store"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Progress ProgressConfig `mapstructure:"progress"`
	Run      RunConfig      `mapstructure:"run"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// ScrapeConfig governs the HTML listing-page collectors.
type ScrapeConfig struct {
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// RegionsConfig locates and bounds the region index scrape. LinkLimit caps
// how many anchors in the container count as regions; later anchors in the
// same container are unrelated links. NameOverrides corrects normalized
// names that naive title-casing mangles.
type RegionsConfig struct {
	IndexURL          string            `mapstructure:"index_url"`
	ContainerSelector string            `mapstructure:"container_selector"`
	LinkLimit         int               `mapstructure:"link_limit"`
	NameOverrides     map[string]string `mapstructure:"name_overrides"`
}

// BrewersConfig locates the active brewer table on region pages. The
// retired listing shares the same marker, so only the first match counts.
type BrewersConfig struct {
	TableSelector string `mapstructure:"table_selector"`
}

// APIConfig configures the beer API client and its request pacing.
type APIConfig struct {
	Endpoint    string        `mapstructure:"endpoint"`
	Key         string        `mapstructure:"key"`
	PageSize    int           `mapstructure:"page_size"`
	MinInterval time.Duration `mapstructure:"min_interval"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// BackupConfig sets the CSV backup directory and an optional GCS mirror.
type BackupConfig struct {
	Dir    string `mapstructure:"dir"`
	Bucket string `mapstructure:"bucket"`
}

// StoreConfig controls access to the document store.
type StoreConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int    `mapstructure:"max_conns"`
}

// NotifyConfig holds metadata for region-completion notifications.
type NotifyConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// MetricsConfig exposes the ops HTTP listener; empty addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// ProgressConfig tunes the progress hub's buffering and flushing.
type ProgressConfig struct {
	Buffer        int           `mapstructure:"buffer"`
	Batch         int           `mapstructure:"batch"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// RunConfig adjusts a single run. SkipRegions supports manual resume after
// an interrupted run: completed regions' backups and inserts stay valid.
// Resume names a prior run ID whose cleanly finished regions are skipped
// automatically, read from the progress trail in the document store.
type RunConfig struct {
	SkipRegions []string `mapstructure:"skip_regions"`
	Resume      string   `mapstructure:"resume"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BREWHARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("scrape.user_agent", "brewharvest/1.0")
	v.SetDefault("scrape.timeout", 30*time.Second)
	v.SetDefault("regions.index_url", "https://www.ratebeer.com/breweries/")
	v.SetDefault("regions.container_selector", "#default")
	v.SetDefault("regions.link_limit", 51)
	v.SetDefault("regions.name_overrides", map[string]string{"Washington Dc": "Washington DC"})
	v.SetDefault("brewers.table_selector", "table#brewerTable")
	v.SetDefault("api.endpoint", "https://beta.ratebeer.com/v1/api/graphql")
	// Registered empty so BREWHARVEST_API_KEY is picked up by AutomaticEnv.
	v.SetDefault("api.key", "")
	v.SetDefault("api.page_size", 1000)
	v.SetDefault("api.min_interval", time.Second)
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("backup.dir", ".")
	v.SetDefault("backup.bucket", "")
	v.SetDefault("store.provider", "postgres")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.table", "beers")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("notify.provider", "none")
	v.SetDefault("notify.project_id", "")
	v.SetDefault("notify.topic", "")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("progress.buffer", 1024)
	v.SetDefault("progress.batch", 64)
	v.SetDefault("progress.flush_interval", 500*time.Millisecond)
	v.SetDefault("run.skip_regions", []string{})
	v.SetDefault("run.resume", "")
}

// Validate enforces required values and reasonable limits. The API key is
// checked here so a missing credential fails before any network activity.
func (c Config) Validate() error {
	if c.API.Key == "" {
		return fmt.Errorf("api.key must be set (BREWHARVEST_API_KEY)")
	}
	if c.API.Endpoint == "" {
		return fmt.Errorf("api.endpoint must be set")
	}
	if c.API.PageSize <= 0 {
		return fmt.Errorf("api.page_size must be > 0")
	}
	if c.API.MinInterval <= 0 {
		return fmt.Errorf("api.min_interval must be > 0")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be > 0")
	}
	if c.Scrape.Timeout <= 0 {
		return fmt.Errorf("scrape.timeout must be > 0")
	}
	if c.Regions.IndexURL == "" {
		return fmt.Errorf("regions.index_url must be set")
	}
	if c.Regions.LinkLimit <= 0 {
		return fmt.Errorf("regions.link_limit must be > 0")
	}
	if c.Brewers.TableSelector == "" {
		return fmt.Errorf("brewers.table_selector must be set")
	}
	if c.Backup.Dir == "" {
		return fmt.Errorf("backup.dir must be set")
	}
	switch c.Store.Provider {
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn must be set when store.provider is postgres")
		}
		if c.Store.MaxConns <= 0 {
			return fmt.Errorf("store.max_conns must be > 0")
		}
	case "none":
	default:
		return fmt.Errorf("store.provider must be postgres or none, got %q", c.Store.Provider)
	}
	switch c.Notify.Provider {
	case "pubsub":
		if c.Notify.ProjectID == "" || c.Notify.Topic == "" {
			return fmt.Errorf("notify.project_id and notify.topic must be set when notify.provider is pubsub")
		}
	case "none":
	default:
		return fmt.Errorf("notify.provider must be pubsub or none, got %q", c.Notify.Provider)
	}
	if c.Run.Resume != "" && c.Store.Provider != "postgres" {
		return fmt.Errorf("run.resume requires store.provider postgres (the run trail lives there)")
	}
	if c.Progress.Buffer <= 0 || c.Progress.Batch <= 0 {
		return fmt.Errorf("progress.buffer and progress.batch must be > 0")
	}
	if c.Progress.FlushInterval <= 0 {
		return fmt.Errorf("progress.flush_interval must be > 0")
	}
	return nil
}
