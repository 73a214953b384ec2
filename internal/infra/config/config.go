package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Ollama     OllamaConfig     `yaml:"ollama"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// OllamaConfig contains model server settings.
type OllamaConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// ClassifierConfig tunes the live classification path.
type ClassifierConfig struct {
	// StreamMaxTokens caps generation on the streaming path. Small on
	// purpose: the early-stop loop only needs enough tokens to reach a
	// parsable label.
	StreamMaxTokens int         `yaml:"streamMaxTokens"`
	EarlyStop       bool        `yaml:"earlyStop"`
	Warmup          bool        `yaml:"warmup"`
	Cache           CacheConfig `yaml:"cache"`
}

// CacheConfig controls the optional sentence-to-label cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr"`
	TTL     time.Duration `yaml:"ttl"`
}

// EvaluationConfig tunes the offline evaluator.
type EvaluationConfig struct {
	// SingleMaxTokens leaves room for reasoning models to finish
	// "thinking" before the final answer on the non-streaming path.
	SingleMaxTokens int `yaml:"singleMaxTokens"`
	BlockMaxTokens  int `yaml:"blockMaxTokens"`
	RetryAttempts   int `yaml:"retryAttempts"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.Ollama.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.Ollama.Model = v
	}
	if v := os.Getenv("OLLAMA_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Ollama.Timeout = parsed
		}
	}
	if v := os.Getenv("CLASSIFIER_STREAM_MAX_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Classifier.StreamMaxTokens = parsed
		}
	}
	if v := os.Getenv("CLASSIFIER_EARLY_STOP"); v != "" {
		cfg.Classifier.EarlyStop = isTruthy(v)
	}
	if v := os.Getenv("CLASSIFIER_WARMUP"); v != "" {
		cfg.Classifier.Warmup = isTruthy(v)
	}
	if v := os.Getenv("CLASSIFIER_CACHE_ENABLED"); v != "" {
		cfg.Classifier.Cache.Enabled = isTruthy(v)
	}
	if v := os.Getenv("CLASSIFIER_CACHE_ADDR"); v != "" {
		cfg.Classifier.Cache.Addr = v
	}
	if v := os.Getenv("CLASSIFIER_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Classifier.Cache.TTL = parsed
		}
	}
	if v := os.Getenv("EVAL_SINGLE_MAX_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Evaluation.SingleMaxTokens = parsed
		}
	}
	if v := os.Getenv("EVAL_BLOCK_MAX_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Evaluation.BlockMaxTokens = parsed
		}
	}
	if v := os.Getenv("EVAL_RETRY_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Evaluation.RetryAttempts = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = isTruthy(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
}

// Default returns the built-in configuration before file and environment
// overrides are applied.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:        ":8000",
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   3 * time.Minute,
			AllowedOrigins: []string{"*"},
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerMinute: 120,
				Burst:             30,
			},
		},
		Ollama: OllamaConfig{
			BaseURL: "http://localhost:11434",
			Model:   "gpt-oss:20b",
			Timeout: 180 * time.Second,
		},
		Classifier: ClassifierConfig{
			StreamMaxTokens: 32,
			EarlyStop:       true,
			Warmup:          true,
			Cache: CacheConfig{
				Enabled: false,
				TTL:     6 * time.Hour,
			},
		},
		Evaluation: EvaluationConfig{
			SingleMaxTokens: 128,
			BlockMaxTokens:  512,
			RetryAttempts:   1,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if strings.TrimSpace(c.Ollama.BaseURL) == "" {
		return errors.New("ollama.baseUrl cannot be empty")
	}
	if strings.TrimSpace(c.Ollama.Model) == "" {
		return errors.New("ollama.model cannot be empty")
	}
	if c.Ollama.Timeout <= 0 {
		return errors.New("ollama.timeout must be positive")
	}
	if c.Classifier.StreamMaxTokens <= 0 {
		return errors.New("classifier.streamMaxTokens must be positive")
	}
	if c.Classifier.Cache.Enabled && c.Classifier.Cache.TTL < 0 {
		return errors.New("classifier.cache.ttl cannot be negative")
	}
	if c.Evaluation.SingleMaxTokens <= 0 {
		return errors.New("evaluation.singleMaxTokens must be positive")
	}
	if c.Evaluation.BlockMaxTokens <= 0 {
		return errors.New("evaluation.blockMaxTokens must be positive")
	}
	if c.Evaluation.RetryAttempts <= 0 {
		return errors.New("evaluation.retryAttempts must be positive")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	return nil
}

func isTruthy(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if clean := strings.TrimSpace(p); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}
