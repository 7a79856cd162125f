package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const appName = "devaudience"

// Config holds all configuration options for devaudience
type Config struct {
	// Primary API (articles and followers)
	DevTo DevToConfig `yaml:"devto" json:"devto"`

	// Secondary API used for follower enrichment
	GitHub GitHubConfig `yaml:"github" json:"github"`

	// Rate limiting and retry configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Snapshot cache settings
	Cache CacheConfig `yaml:"cache" json:"cache"`

	// Analysis parameters
	Analysis AnalysisConfig `yaml:"analysis" json:"analysis"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// DevToConfig holds primary API configuration
type DevToConfig struct {
	APIKey   string        `yaml:"api_key" json:"-"`
	BaseURL  string        `yaml:"base_url" json:"base_url" validate:"required,url"`
	PageSize int           `yaml:"page_size" json:"page_size" validate:"min=1,max=1000"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`
}

// GitHubConfig holds enrichment API configuration. An empty token disables
// enrichment for the run.
type GitHubConfig struct {
	Token   string        `yaml:"token" json:"-"`
	BaseURL string        `yaml:"base_url" json:"base_url" validate:"required,url"`
	Enabled bool          `yaml:"enabled" json:"enabled"`
	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`
	// BreakerFailures is the number of consecutive failures that opens the
	// enrichment circuit breaker
	BreakerFailures uint32 `yaml:"breaker_failures" json:"breaker_failures" validate:"min=1"`
}

// RateLimitConfig holds rate limit handling and request pacing
type RateLimitConfig struct {
	// Status is the HTTP status the APIs use to signal rate limiting
	Status            int           `yaml:"status" json:"status" validate:"min=400,max=599"`
	Backoff           time.Duration `yaml:"backoff" json:"backoff" validate:"gte=0"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" json:"backoff_multiplier" validate:"gte=0"`
	MaxBackoff        time.Duration `yaml:"max_backoff" json:"max_backoff" validate:"gte=0"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries" validate:"min=1"`
	// RequestsPerMinute paces primary API calls; 0 disables pacing
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute" validate:"min=0"`
	// DetailWorkers bounds concurrent per-follower detail and enrichment calls
	DetailWorkers int `yaml:"detail_workers" json:"detail_workers" validate:"min=1,max=16"`
}

// CacheConfig holds snapshot cache configuration
type CacheConfig struct {
	Enabled       bool   `yaml:"enabled" json:"enabled"`
	Directory     string `yaml:"directory" json:"directory"`
	ArticlesPath  string `yaml:"articles_path" json:"articles_path"`
	FollowersPath string `yaml:"followers_path" json:"followers_path"`
	// TTL expires snapshots older than this; 0 trusts them indefinitely
	TTL time.Duration `yaml:"ttl" json:"ttl" validate:"gte=0"`
}

// AnalysisConfig holds parameters of the analysis functions
type AnalysisConfig struct {
	WindowDays int            `yaml:"window_days" json:"window_days" validate:"min=0"`
	Activity   ActivityConfig `yaml:"activity" json:"activity"`
	Bot        BotConfig      `yaml:"bot" json:"bot"`
}

// ActivityConfig holds the tier thresholds
type ActivityConfig struct {
	MinArticles int `yaml:"min_articles" json:"min_articles" validate:"min=1"`
	MinComments int `yaml:"min_comments" json:"min_comments" validate:"min=1"`
}

// BotConfig holds the bot-likelihood heuristic thresholds
type BotConfig struct {
	MaxJoinFollowGapDays int     `yaml:"max_join_follow_gap_days" json:"max_join_follow_gap_days" validate:"min=0"`
	MaxCompleteness      float64 `yaml:"max_completeness" json:"max_completeness" validate:"gte=0,lte=1"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level" validate:"omitempty,oneof=debug info warn warning error disabled"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		DevTo: DevToConfig{
			BaseURL:  "https://dev.to/api",
			PageSize: 1000,
			Timeout:  30 * time.Second,
		},
		GitHub: GitHubConfig{
			BaseURL:         "https://api.github.com",
			Enabled:         true,
			Timeout:         30 * time.Second,
			BreakerFailures: 5,
		},
		RateLimit: RateLimitConfig{
			Status:            429,
			Backoff:           time.Second,
			BackoffMultiplier: 1,
			MaxBackoff:        time.Minute,
			MaxRetries:        5,
			RequestsPerMinute: 0,
			DetailWorkers:     1,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Directory: filepath.Join(xdg.CacheHome, appName),
		},
		Analysis: AnalysisConfig{
			WindowDays: 14,
			Activity: ActivityConfig{
				MinArticles: 1,
				MinComments: 1,
			},
			Bot: BotConfig{
				MaxJoinFollowGapDays: 0,
				MaxCompleteness:      0,
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ArticlesSnapshotPath returns the configured or derived articles snapshot path
func (c *Config) ArticlesSnapshotPath() string {
	if c.Cache.ArticlesPath != "" {
		return c.Cache.ArticlesPath
	}
	return filepath.Join(c.Cache.Directory, "articles.parquet")
}

// FollowersSnapshotPath returns the configured or derived followers snapshot path
func (c *Config) FollowersSnapshotPath() string {
	if c.Cache.FollowersPath != "" {
		return c.Cache.FollowersPath
	}
	return filepath.Join(c.Cache.Directory, "followers.parquet")
}

// EnrichmentEnabled reports whether the enrichment client has a credential
func (c *Config) EnrichmentEnabled() bool {
	return c.GitHub.Enabled && c.GitHub.Token != ""
}

// LoadFromEnv loads configuration from environment variables. DEV_KEY and
// GITHUB_TOKEN are accepted for compatibility with existing .env files.
func (c *Config) LoadFromEnv() error {
	for _, name := range []string{"DEV_KEY", "DEVAUDIENCE_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			c.DevTo.APIKey = v
		}
	}
	for _, name := range []string{"GITHUB_TOKEN", "DEVAUDIENCE_GITHUB_TOKEN"} {
		if v := os.Getenv(name); v != "" {
			c.GitHub.Token = v
		}
	}
	if v := os.Getenv("DEVAUDIENCE_BASE_URL"); v != "" {
		c.DevTo.BaseURL = v
	}
	if v := os.Getenv("DEVAUDIENCE_CACHE_DIR"); v != "" {
		c.Cache.Directory = v
	}
	if v := os.Getenv("DEVAUDIENCE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	var errs []error
	if v := os.Getenv("DEVAUDIENCE_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("DEVAUDIENCE_PAGE_SIZE: %w", err))
		} else {
			c.DevTo.PageSize = n
		}
	}
	if v := os.Getenv("DEVAUDIENCE_WINDOW_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("DEVAUDIENCE_WINDOW_DAYS: %w", err))
		} else {
			c.Analysis.WindowDays = n
		}
	}
	if v := os.Getenv("DEVAUDIENCE_RATE_LIMIT_STATUS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("DEVAUDIENCE_RATE_LIMIT_STATUS: %w", err))
		} else {
			c.RateLimit.Status = n
		}
	}
	if v := os.Getenv("DEVAUDIENCE_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("DEVAUDIENCE_CACHE_TTL: %w", err))
		} else {
			c.Cache.TTL = d
		}
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// DefaultConfigPath is where `config init` writes and where Load looks last
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	locations := []string{
		".devaudience.yaml",
		".devaudience.yml",
		DefaultConfigPath(),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

var validate = validator.New()

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, formatFieldError(fe))
			}
		} else {
			errs = append(errs, err)
		}
	}

	if c.Cache.Enabled && c.Cache.Directory == "" &&
		(c.Cache.ArticlesPath == "" || c.Cache.FollowersPath == "") {
		errs = append(errs, errors.New("cache directory or both snapshot paths are required"))
	}
	if c.Cache.Enabled && c.ArticlesSnapshotPath() == c.FollowersSnapshotPath() {
		errs = append(errs, errors.New("articles and followers snapshots must use different paths"))
	}
	if c.RateLimit.BackoffMultiplier > 1 && c.RateLimit.MaxBackoff > 0 && c.RateLimit.MaxBackoff < c.RateLimit.Backoff {
		errs = append(errs, errors.New("max backoff must not be lower than backoff"))
	}

	return errors.Join(errs...)
}

func formatFieldError(fe validator.FieldError) error {
	field := strings.ToLower(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "min", "gte":
		return fmt.Errorf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Errorf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Errorf("%s must be greater than %s", field, fe.Param())
	case "url":
		return fmt.Errorf("%s must be a valid URL", field)
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Errorf("%s is invalid", field)
	}
}

// Save saves the configuration to a file. Credentials are never written.
func (c *Config) Save(path string) error {
	out := *c
	out.DevTo.APIKey = ""
	out.GitHub.Token = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["api-key"].(string); ok && v != "" {
		c.DevTo.APIKey = v
	}
	if v, ok := flags["github-token"].(string); ok && v != "" {
		c.GitHub.Token = v
	}
	if v, ok := flags["no-enrich"].(bool); ok && v {
		c.GitHub.Enabled = false
	}
	if v, ok := flags["page-size"].(int); ok && v > 0 {
		c.DevTo.PageSize = v
	}
	if v, ok := flags["window-days"].(int); ok && v >= 0 {
		c.Analysis.WindowDays = v
	}
	if v, ok := flags["cache-dir"].(string); ok && v != "" {
		c.Cache.Directory = v
	}
	if v, ok := flags["no-cache"].(bool); ok && v {
		c.Cache.Enabled = false
	}
	if v, ok := flags["cache-ttl"].(time.Duration); ok && v > 0 {
		c.Cache.TTL = v
	}
	if v, ok := flags["workers"].(int); ok && v > 0 {
		c.RateLimit.DetailWorkers = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["no-color"].(bool); ok && v {
		c.Logging.NoColor = true
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(xdg.ConfigHome, appName, ".env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
