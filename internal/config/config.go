package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		DataDir  string `yaml:"data_dir"`
		Port     int    `yaml:"port"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Crawler struct {
		UserAgent          string  `yaml:"user_agent"`
		RequestTimeout     string  `yaml:"request_timeout"`
		SourceTimeout      string  `yaml:"source_timeout"`
		MaxParallelSources int     `yaml:"max_parallel_sources"`
		PerHostRPS         float64 `yaml:"per_host_rps"`
		PerHostBurst       int     `yaml:"per_host_burst"`
		StaleRunAfter      string  `yaml:"stale_run_after"`
	} `yaml:"crawler"`

	Filters Filters `yaml:"filters"`

	Sources []Source `yaml:"sources"`
}

type Filters struct {
	Keywords      []string `yaml:"keywords"`       // OR; empty = keep everything
	ExperienceAny []string `yaml:"experience_any"` // OR over the raw experience text
	Exclude       []string `yaml:"exclude"`        // wins over everything
}

// Source configures one external listing origin. Adapter-specific params
// live side by side; each adapter reads the ones it knows.
type Source struct {
	ID            string `yaml:"id"`
	Kind          string `yaml:"kind"` // wanted | saramin | inthiswork
	Enabled       bool   `yaml:"enabled"`
	FetchInterval string `yaml:"fetch_interval"` // Go duration or cron spec ("30m", "@hourly", "*/15 * * * *")

	BaseURL    string   `yaml:"base_url,omitempty"`
	Keywords   []string `yaml:"keywords,omitempty"`   // saramin search terms
	Categories []int    `yaml:"categories,omitempty"` // wanted tag_type_ids
	PageSize   int      `yaml:"page_size,omitempty"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// Duration getters with defaults; raw strings are validated separately.

func (c Config) RequestTimeout() time.Duration {
	return durationOr(c.Crawler.RequestTimeout, 30*time.Second)
}

func (c Config) SourceTimeout() time.Duration {
	return durationOr(c.Crawler.SourceTimeout, 5*time.Minute)
}

func (c Config) StaleRunAfter() time.Duration {
	return durationOr(c.Crawler.StaleRunAfter, 30*time.Minute)
}

func (c Config) MaxParallelSources() int {
	if c.Crawler.MaxParallelSources > 0 {
		return c.Crawler.MaxParallelSources
	}
	return 3
}

func durationOr(raw string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
