// Package config provides configuration management for the collector worker.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"solarintel/internal/models"
)

//go:embed default_config.yaml
var defaultConfigYAML []byte

// Configuration validation errors.
var (
	ErrNoPipelines            = errors.New("at least one pipeline is required")
	ErrNoEnabledPipelines     = errors.New("at least one pipeline must be enabled")
	ErrPipelineMissingName    = errors.New("pipeline name is required")
	ErrDuplicatePipelineName  = errors.New("pipeline names must be unique")
	ErrPipelineMissingDataset = errors.New("pipeline dataset is required")
	ErrDuplicateDataset       = errors.New("two pipelines cannot share a dataset")
	ErrPipelineNoSources      = errors.New("pipeline needs at least one source")
	ErrInvalidStore           = errors.New("store must be 'csv' or 'sqlite'")
	ErrInvalidDedupKey        = errors.New("dedup_key must be 'link' or 'title_link'")
	ErrInvalidSort            = errors.New("sort must be 'none' or 'published_desc'")
	ErrInvalidGroupColumn     = errors.New("group_column must be 'Company', 'Country' or empty")
	ErrInvalidFilterPreset    = errors.New("filter.preset must be 'keyword' or 'title_phrase'")
	ErrSourceMissingKind      = errors.New("source kind must be 'newsapi', 'rss' or 'html'")
	ErrSourceMissingEndpoint  = errors.New("source endpoint is required")
	ErrInvalidPageSize        = errors.New("source page_size must be between 1 and the source maximum")
	ErrHTMLMissingSelectors   = errors.New("html source needs an item selector")
	ErrInvalidInterval        = errors.New("scheduler.interval must be a positive duration")
	ErrInvalidTimeout         = errors.New("http.timeout_sec must be at least 1")
	ErrInvalidConcurrency     = errors.New("http.max_concurrency must be at least 1")
	ErrInvalidLogLevel        = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat       = errors.New("logging.format must be 'text' or 'json'")
	ErrInvalidGeoRadius       = errors.New("geo.radius_m must be positive")
	ErrInvalidGeoPrecision    = errors.New("geo.precision must be between 0 and 10")
)

// Source kinds.
const (
	KindNewsAPI = "newsapi"
	KindRSS     = "rss"
	KindHTML    = "html"
)

// Store kinds.
const (
	StoreCSV    = "csv"
	StoreSQLite = "sqlite"
)

// Dedup key modes.
const (
	DedupLink      = "link"
	DedupTitleLink = "title_link"
)

// Sort modes.
const (
	SortNone          = "none"
	SortPublishedDesc = "published_desc"
)

// Filter presets.
const (
	PresetKeyword     = "keyword"
	PresetTitlePhrase = "title_phrase"
)

// NewsAPIMaxPageSize is the upstream page size ceiling.
const NewsAPIMaxPageSize = 100

// Config represents the complete worker configuration.
type Config struct {
	Logging     LoggingConfig     `yaml:"logging"`
	HTTP        HTTPConfig        `yaml:"http"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Geo         GeoConfig         `yaml:"geo"`
	DataDir     string            `yaml:"data_dir"`
	Pipelines   []PipelineConfig  `yaml:"pipelines"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HTTPConfig defines upstream request behavior.
type HTTPConfig struct {
	TimeoutSec     int `yaml:"timeout_sec"`
	MaxConcurrency int `yaml:"max_concurrency"`
}

// SchedulerConfig defines the polling period.
type SchedulerConfig struct {
	Interval string `yaml:"interval"`
}

// CredentialsConfig names the environment variables holding upstream keys.
type CredentialsConfig struct {
	NewsAPIKeyEnv string `yaml:"newsapi_key_env"`
}

// GeoConfig defines the map de-collision parameters.
// A nil Precision means unset; an explicit 0 groups on whole degrees.
type GeoConfig struct {
	Precision    *int    `yaml:"precision,omitempty"`
	RadiusM      float64 `yaml:"radius_m"`
	EntitiesFile string  `yaml:"entities_file"`
}

// PipelineConfig describes one fetch -> filter -> merge pipeline and its dataset.
type PipelineConfig struct {
	Name        string           `yaml:"name"`
	Dataset     string           `yaml:"dataset"`
	Store       string           `yaml:"store"`
	GroupColumn string           `yaml:"group_column"`
	DedupKey    string           `yaml:"dedup_key"`
	Sort        string           `yaml:"sort"`
	Filter      FilterConfig     `yaml:"filter"`
	Sources     []SourceConfig   `yaml:"sources"`
	Subjects    []models.Subject `yaml:"subjects"`
	Enabled     bool             `yaml:"enabled"`
	KeepSnippet bool             `yaml:"keep_snippet"`
	KeepQuery   bool             `yaml:"keep_query"`
}

// FilterConfig selects the relevance policy.
type FilterConfig struct {
	Preset  string   `yaml:"preset"`
	Phrases []string `yaml:"phrases"`
}

// SourceConfig describes one upstream endpoint.
type SourceConfig struct {
	Name               string          `yaml:"name"`
	Kind               string          `yaml:"kind"`
	Endpoint           string          `yaml:"endpoint"`
	Base               string          `yaml:"base"`
	Query              string          `yaml:"query"`
	SubjectParam       string          `yaml:"subject_param"`
	Language           string          `yaml:"language"`
	SortBy             string          `yaml:"sort_by"`
	UserAgent          string          `yaml:"user_agent"`
	Selectors          SelectorsConfig `yaml:"selectors"`
	PageSize           int             `yaml:"page_size"`
	InsecureSkipVerify bool            `yaml:"insecure_skip_verify"`
}

// SelectorsConfig holds CSS selectors for html sources. Title and Link are
// evaluated inside each item; empty means the item's own text or href.
type SelectorsConfig struct {
	Item    string `yaml:"item"`
	Title   string `yaml:"title"`
	Link    string `yaml:"link"`
	Snippet string `yaml:"snippet"`
}

// LoadConfig loads configuration from a YAML file over the built-in defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// LoadDefault returns the embedded configuration.
func LoadDefault() (*Config, error) {
	return Parse(defaultConfigYAML)
}

// Load reads path, or the XDG config path when empty. A missing file at the
// default location falls back to the embedded configuration.
func Load(path string) (*Config, error) {
	if path != "" {
		return LoadConfig(path)
	}

	path = DefaultConfigPath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return LoadDefault()
	}

	return LoadConfig(path)
}

// Parse decodes YAML, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadEnv loads .env files into the process environment. Missing files are ignored,
// and variables already set are not overridden.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	var existing []string

	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}

	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}

	return nil
}

// DefaultConfigPath is $XDG_CONFIG_HOME/solarintel/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "solarintel", "config.yaml")
}

// DefaultDataDir is $XDG_DATA_HOME/solarintel.
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, "solarintel")
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.HTTP.TimeoutSec == 0 {
		c.HTTP.TimeoutSec = 15
	}

	if c.HTTP.MaxConcurrency == 0 {
		c.HTTP.MaxConcurrency = 4
	}

	if c.Scheduler.Interval == "" {
		c.Scheduler.Interval = "1h"
	}

	if c.Credentials.NewsAPIKeyEnv == "" {
		c.Credentials.NewsAPIKeyEnv = "NEWSAPI_KEY"
	}

	if c.Geo.RadiusM == 0 {
		c.Geo.RadiusM = 120
	}

	if c.Geo.Precision == nil {
		precision := 4
		c.Geo.Precision = &precision
	}

	for i := range c.Pipelines {
		p := &c.Pipelines[i]

		if p.Store == "" {
			p.Store = StoreCSV
		}

		if p.DedupKey == "" {
			p.DedupKey = DedupLink
		}

		if p.Sort == "" {
			p.Sort = SortNone
		}

		if p.Filter.Preset == "" {
			p.Filter.Preset = PresetKeyword
		}

		for j := range p.Sources {
			s := &p.Sources[j]
			if s.PageSize == 0 && s.Kind == KindNewsAPI {
				s.PageSize = NewsAPIMaxPageSize
			}

			if s.Language == "" && s.Kind == KindNewsAPI {
				s.Language = "en"
			}
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Pipelines) == 0 {
		return ErrNoPipelines
	}

	names := make(map[string]bool)
	datasets := make(map[string]bool)
	enabledCount := 0

	for i := range c.Pipelines {
		p := &c.Pipelines[i]

		if err := p.validate(); err != nil {
			return fmt.Errorf("pipeline[%d]: %w", i, err)
		}

		if names[p.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicatePipelineName, p.Name)
		}

		names[p.Name] = true

		ds := filepath.Clean(c.DatasetPath(p))
		if datasets[ds] {
			return fmt.Errorf("%w: %s", ErrDuplicateDataset, ds)
		}

		datasets[ds] = true

		if p.Enabled {
			enabledCount++
		}
	}

	if enabledCount == 0 {
		return ErrNoEnabledPipelines
	}

	if d, err := time.ParseDuration(c.Scheduler.Interval); err != nil || d <= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidInterval, c.Scheduler.Interval)
	}

	if c.HTTP.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.HTTP.MaxConcurrency < 1 {
		return ErrInvalidConcurrency
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	if c.Geo.RadiusM <= 0 {
		return ErrInvalidGeoRadius
	}

	if p := c.GeoPrecision(); p < 0 || p > 10 {
		return ErrInvalidGeoPrecision
	}

	return nil
}

func (p *PipelineConfig) validate() error {
	if p.Name == "" {
		return ErrPipelineMissingName
	}

	if p.Dataset == "" {
		return ErrPipelineMissingDataset
	}

	if p.Store != StoreCSV && p.Store != StoreSQLite {
		return ErrInvalidStore
	}

	if p.DedupKey != DedupLink && p.DedupKey != DedupTitleLink {
		return ErrInvalidDedupKey
	}

	if p.Sort != SortNone && p.Sort != SortPublishedDesc {
		return ErrInvalidSort
	}

	switch p.GroupColumn {
	case "", models.ColumnCompany, models.ColumnCountry:
	default:
		return ErrInvalidGroupColumn
	}

	if p.Filter.Preset != PresetKeyword && p.Filter.Preset != PresetTitlePhrase {
		return ErrInvalidFilterPreset
	}

	if len(p.Sources) == 0 {
		return ErrPipelineNoSources
	}

	for j, src := range p.Sources {
		if err := src.validate(); err != nil {
			return fmt.Errorf("source[%d]: %w", j, err)
		}
	}

	return nil
}

func (s *SourceConfig) validate() error {
	switch s.Kind {
	case KindNewsAPI, KindRSS, KindHTML:
	default:
		return fmt.Errorf("%w: %q", ErrSourceMissingKind, s.Kind)
	}

	if s.Endpoint == "" {
		return ErrSourceMissingEndpoint
	}

	if s.Kind == KindNewsAPI && (s.PageSize < 1 || s.PageSize > NewsAPIMaxPageSize) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, s.PageSize)
	}

	if s.Kind == KindHTML && s.Selectors.Item == "" {
		return ErrHTMLMissingSelectors
	}

	return nil
}

// GetEnabledPipelines returns only enabled pipelines.
func (c *Config) GetEnabledPipelines() []PipelineConfig {
	var enabled []PipelineConfig

	for _, p := range c.Pipelines {
		if p.Enabled {
			enabled = append(enabled, p)
		}
	}

	return enabled
}

// GetPipeline looks a pipeline up by name.
func (c *Config) GetPipeline(name string) (PipelineConfig, bool) {
	for _, p := range c.Pipelines {
		if p.Name == name {
			return p, true
		}
	}

	return PipelineConfig{}, false
}

// GetInterval returns the scheduler period. Validate guarantees it parses.
func (c *Config) GetInterval() time.Duration {
	d, err := time.ParseDuration(c.Scheduler.Interval)
	if err != nil {
		return time.Hour
	}

	return d
}

// GeoPrecision returns the coordinate rounding precision, 4 when unset.
func (c *Config) GeoPrecision() int {
	if c.Geo.Precision == nil {
		return 4
	}

	return *c.Geo.Precision
}

// GetTimeout returns the per-request timeout.
func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSec) * time.Second
}

// DatasetPath resolves a pipeline dataset against data_dir (XDG data home when unset).
func (c *Config) DatasetPath(p *PipelineConfig) string {
	if filepath.IsAbs(p.Dataset) {
		return p.Dataset
	}

	dir := c.DataDir
	if dir == "" {
		dir = DefaultDataDir()
	}

	return filepath.Join(dir, p.Dataset)
}

// NewsAPIKey returns the credential from the environment, or "" when missing.
func (c *Config) NewsAPIKey() string {
	return strings.TrimSpace(os.Getenv(c.Credentials.NewsAPIKeyEnv))
}

// NeedsCredential reports whether any source of p requires an API key.
func (p *PipelineConfig) NeedsCredential() bool {
	for _, s := range p.Sources {
		if s.Kind == KindNewsAPI {
			return true
		}
	}

	return false
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Pipelines: %d, Enabled: %d, Interval: %s, DataDir: %s}",
		len(c.Pipelines),
		len(c.GetEnabledPipelines()),
		c.Scheduler.Interval,
		c.DataDir,
	)
}
