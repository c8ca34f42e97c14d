package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const defaultExternalHTTPTimeout = 30 * time.Second
const defaultExternalHTTPTimeoutSeconds = int(defaultExternalHTTPTimeout / time.Second)

const DefaultAnthropicModel = "claude-sonnet-4-5-20250929"

type Config struct {
	ListenAddr  string `yaml:"listen_addr"`
	LogLevel    string `yaml:"log_level"`
	Environment string `yaml:"environment"`
	DBPath      string `yaml:"db_path"`

	ExternalHTTPTimeoutSeconds int `yaml:"external_http_timeout_seconds"`

	// ml, anthropic or fallback.
	ClassifierProvider    string `yaml:"classifier_provider"`
	MLServiceURL          string `yaml:"ml_service_url"`
	MLTimeoutMillis       int    `yaml:"ml_timeout_ms"`
	MLRetryAttempts       int    `yaml:"ml_retry_attempts"`
	TrainingDataDisabled  bool   `yaml:"training_data_disabled"`
	BreakerFailures       int    `yaml:"breaker_consecutive_failures"`
	BreakerOpenSeconds    int    `yaml:"breaker_open_seconds"`
	BreakerHalfOpenProbes int    `yaml:"breaker_half_open_probes"`
	RetrainMinLabeled     int    `yaml:"retrain_min_labeled"`

	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	LLMModel        string `yaml:"llm_model"`

	HateThreshold      float64            `yaml:"hate_threshold"`
	LowThreshold       float64            `yaml:"low_threshold"`
	HighThreshold      float64            `yaml:"high_threshold"`
	CriticalThreshold  float64            `yaml:"critical_threshold"`
	ConfidencePerPoint float64            `yaml:"confidence_per_point"`
	ConfidenceCap      float64            `yaml:"confidence_cap"`
	CategoryWeights    map[string]float64 `yaml:"category_weights"`
	LexiconPath        string             `yaml:"lexicon_path"`
	MaxBodyLength      int                `yaml:"max_body_length"`

	// Empty for templates only, otherwise http or anthropic.
	CounselProvider      string `yaml:"counsel_provider"`
	CounselURL           string `yaml:"counsel_url"`
	CounselTimeoutMillis int    `yaml:"counsel_timeout_ms"`
	MemoryBackend        string `yaml:"memory_backend"`
	RedisURL             string `yaml:"redis_url"`
	MemoryTTLHours       int    `yaml:"memory_ttl_hours"`
	RandomSeed           int64  `yaml:"random_seed"`
	LogConversations     bool   `yaml:"log_conversations"`

	SlackBotToken        string `yaml:"slack_bot_token"`
	SlackAlertChannelID  string `yaml:"slack_alert_channel_id"`
	SlackDigestChannelID string `yaml:"slack_digest_channel_id"`

	HealthProbeSchedule  string `yaml:"health_probe_schedule"`
	RetrainSchedule      string `yaml:"retrain_schedule"`
	ReportDigestSchedule string `yaml:"report_digest_schedule"`
	Timezone             string `yaml:"timezone"`

	Location *time.Location `yaml:"-"` // computed from Timezone, not from YAML
}

// Load reads CONFIG_PATH (default config.yaml), applies environment
// overrides and defaults, and validates the result.
func Load() (Config, error) {
	var cfg Config

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	envOverride(&cfg.ListenAddr, "LISTEN_ADDR")
	envOverride(&cfg.LogLevel, "LOG_LEVEL")
	envOverride(&cfg.Environment, "ENVIRONMENT")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.ClassifierProvider, "CLASSIFIER_PROVIDER")
	envOverride(&cfg.MLServiceURL, "ML_SERVICE_URL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.LexiconPath, "LEXICON_PATH")
	envOverride(&cfg.CounselProvider, "COUNSEL_PROVIDER")
	envOverride(&cfg.CounselURL, "COUNSEL_URL")
	envOverride(&cfg.MemoryBackend, "MEMORY_BACKEND")
	envOverride(&cfg.RedisURL, "REDIS_URL")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackAlertChannelID, "SLACK_ALERT_CHANNEL_ID")
	envOverride(&cfg.SlackDigestChannelID, "SLACK_DIGEST_CHANNEL_ID")
	envOverride(&cfg.HealthProbeSchedule, "HEALTH_PROBE_SCHEDULE")
	envOverrideAllowEmpty(&cfg.RetrainSchedule, "RETRAIN_SCHEDULE")
	envOverride(&cfg.ReportDigestSchedule, "REPORT_DIGEST_SCHEDULE")
	envOverride(&cfg.Timezone, "TIMEZONE")
	envOverrideBool(&cfg.TrainingDataDisabled, "TRAINING_DATA_DISABLED")
	envOverrideBool(&cfg.LogConversations, "LOG_CONVERSATIONS")

	ints := []struct {
		field *int
		key   string
	}{
		{&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS"},
		{&cfg.MLTimeoutMillis, "ML_TIMEOUT_MS"},
		{&cfg.MLRetryAttempts, "ML_RETRY_ATTEMPTS"},
		{&cfg.MaxBodyLength, "MAX_BODY_LENGTH"},
		{&cfg.CounselTimeoutMillis, "COUNSEL_TIMEOUT_MS"},
		{&cfg.MemoryTTLHours, "MEMORY_TTL_HOURS"},
		{&cfg.RetrainMinLabeled, "RETRAIN_MIN_LABELED"},
	}
	for _, o := range ints {
		if err := envOverrideInt(o.field, o.key); err != nil {
			return err
		}
	}
	floats := []struct {
		field *float64
		key   string
	}{
		{&cfg.HateThreshold, "HATE_THRESHOLD"},
		{&cfg.LowThreshold, "LOW_THRESHOLD"},
		{&cfg.HighThreshold, "HIGH_THRESHOLD"},
		{&cfg.CriticalThreshold, "CRITICAL_THRESHOLD"},
	}
	for _, o := range floats {
		if err := envOverrideFloat(o.field, o.key); err != nil {
			return err
		}
	}
	if val := os.Getenv("RANDOM_SEED"); val != "" {
		seed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid RANDOM_SEED '%s': %w", val, err)
		}
		cfg.RandomSeed = seed
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Environment == "" {
		cfg.Environment = "production"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./safefeed.db"
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = defaultExternalHTTPTimeoutSeconds
	}
	if cfg.ClassifierProvider == "" {
		cfg.ClassifierProvider = "ml"
	}
	if cfg.MLServiceURL == "" {
		cfg.MLServiceURL = "http://localhost:5000"
	}
	if cfg.MLTimeoutMillis == 0 {
		cfg.MLTimeoutMillis = 5000
	}
	if cfg.MLRetryAttempts == 0 {
		cfg.MLRetryAttempts = 2
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerOpenSeconds == 0 {
		cfg.BreakerOpenSeconds = 30
	}
	if cfg.BreakerHalfOpenProbes == 0 {
		cfg.BreakerHalfOpenProbes = 3
	}
	if cfg.RetrainMinLabeled == 0 {
		cfg.RetrainMinLabeled = 50
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = DefaultAnthropicModel
	}
	if cfg.HateThreshold == 0 {
		cfg.HateThreshold = 0.4
	}
	if cfg.LowThreshold == 0 {
		cfg.LowThreshold = 0.2
	}
	if cfg.HighThreshold == 0 {
		cfg.HighThreshold = 0.6
	}
	if cfg.CriticalThreshold == 0 {
		cfg.CriticalThreshold = 0.8
	}
	if cfg.ConfidencePerPoint == 0 {
		cfg.ConfidencePerPoint = 0.15
	}
	if cfg.ConfidenceCap == 0 {
		cfg.ConfidenceCap = 0.95
	}
	if cfg.MaxBodyLength == 0 {
		cfg.MaxBodyLength = 5000
	}
	if cfg.CounselTimeoutMillis == 0 {
		cfg.CounselTimeoutMillis = 3000
	}
	if cfg.MemoryBackend == "" {
		cfg.MemoryBackend = "memory"
	}
	if cfg.MemoryTTLHours == 0 {
		cfg.MemoryTTLHours = 24 * 7
	}
	if cfg.HealthProbeSchedule == "" {
		cfg.HealthProbeSchedule = "@every 1m"
	}
	if cfg.ReportDigestSchedule == "" {
		cfg.ReportDigestSchedule = "0 9 * * *"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}
}

func (c *Config) validate() error {
	switch c.ClassifierProvider {
	case "ml", "fallback":
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("anthropic_api_key is required when classifier_provider=anthropic")
		}
	default:
		return fmt.Errorf("classifier_provider must be 'ml', 'anthropic' or 'fallback', got '%s'", c.ClassifierProvider)
	}

	switch c.CounselProvider {
	case "":
	case "http":
		if c.CounselURL == "" {
			return fmt.Errorf("counsel_url is required when counsel_provider=http")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("anthropic_api_key is required when counsel_provider=anthropic")
		}
	default:
		return fmt.Errorf("counsel_provider must be empty, 'http' or 'anthropic', got '%s'", c.CounselProvider)
	}

	switch c.MemoryBackend {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("redis_url is required when memory_backend=redis")
		}
	default:
		return fmt.Errorf("memory_backend must be 'memory' or 'redis', got '%s'", c.MemoryBackend)
	}

	if !(0 < c.LowThreshold && c.LowThreshold < c.HateThreshold && c.HateThreshold < c.HighThreshold && c.HighThreshold < c.CriticalThreshold && c.CriticalThreshold <= 1) {
		return fmt.Errorf("thresholds must satisfy 0 < low < hate < high < critical <= 1, got %.2f/%.2f/%.2f/%.2f",
			c.LowThreshold, c.HateThreshold, c.HighThreshold, c.CriticalThreshold)
	}
	if c.ConfidenceCap <= 0 || c.ConfidenceCap > 1 {
		return fmt.Errorf("invalid confidence_cap '%f': must be in (0, 1]", c.ConfidenceCap)
	}
	if c.ConfidencePerPoint <= 0 {
		return fmt.Errorf("invalid confidence_per_point '%f': must be > 0", c.ConfidencePerPoint)
	}
	for category, weight := range c.CategoryWeights {
		if weight <= 0 {
			return fmt.Errorf("invalid weight %f for category '%s': must be > 0", weight, category)
		}
	}
	if c.MLTimeoutMillis < 100 {
		return fmt.Errorf("invalid ml_timeout_ms '%d': must be >= 100", c.MLTimeoutMillis)
	}
	if c.MLRetryAttempts < 0 {
		return fmt.Errorf("invalid ml_retry_attempts '%d': must be >= 0", c.MLRetryAttempts)
	}
	if c.MaxBodyLength < 1 {
		return fmt.Errorf("invalid max_body_length '%d': must be >= 1", c.MaxBodyLength)
	}
	if c.ExternalHTTPTimeoutSeconds < 5 {
		return fmt.Errorf("invalid external_http_timeout_seconds '%d': must be >= 5", c.ExternalHTTPTimeoutSeconds)
	}
	if c.SlackBotToken != "" && c.SlackAlertChannelID == "" {
		return fmt.Errorf("slack_alert_channel_id is required when slack_bot_token is set")
	}

	for name, spec := range map[string]string{
		"health_probe_schedule":  c.HealthProbeSchedule,
		"retrain_schedule":       c.RetrainSchedule,
		"report_digest_schedule": c.ReportDigestSchedule,
	} {
		if spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, spec, err)
		}
	}

	if strings.EqualFold(c.Timezone, "Local") {
		c.Location = time.Local
	} else {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
		}
		c.Location = loc
	}

	if c.LexiconPath != "" {
		if err := validateLexiconPath(c.LexiconPath); err != nil {
			return fmt.Errorf("invalid lexicon_path '%s': %w", c.LexiconPath, err)
		}
	}
	return nil
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideAllowEmpty(field *string, envKey string) {
	if val, ok := os.LookupEnv(envKey); ok {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = strings.EqualFold(val, "true") || val == "1"
	}
}

func envOverrideFloat(field *float64, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func (c Config) MLTimeout() time.Duration {
	return time.Duration(c.MLTimeoutMillis) * time.Millisecond
}

func (c Config) CounselTimeout() time.Duration {
	return time.Duration(c.CounselTimeoutMillis) * time.Millisecond
}

func (c Config) MemoryTTL() time.Duration {
	return time.Duration(c.MemoryTTLHours) * time.Hour
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.SlackAlertChannelID != ""
}

func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

func validateLexiconPath(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read lexicon: %w", err)
	}
	var l struct {
		Categories map[string][]string `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &l); err != nil {
		return fmt.Errorf("parse lexicon yaml: %w", err)
	}
	if len(l.Categories) == 0 {
		return fmt.Errorf("lexicon has no categories")
	}
	return nil
}
