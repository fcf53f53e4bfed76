package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the full clauseguard configuration tree
type Config struct {
	Rules        RulesConfig        `yaml:"rules" mapstructure:"rules"`
	Analysis     AnalysisConfig     `yaml:"analysis" mapstructure:"analysis"`
	Extract      ExtractConfig      `yaml:"extract" mapstructure:"extract"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Audit        AuditConfig        `yaml:"audit" mapstructure:"audit"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	Metrics      MetricsConfig      `yaml:"metrics" mapstructure:"metrics"`
}

// RulesConfig selects the risk rule table
type RulesConfig struct {
	File string `yaml:"file" mapstructure:"file"` // Empty = built-in table
}

// AnalysisConfig tunes the aggregation step
type AnalysisConfig struct {
	TopN       int        `yaml:"top_n" mapstructure:"top_n"`
	Categories []string `yaml:"categories,omitempty" mapstructure:"categories"` // Rule categories to check; empty = all
}

// ExtractConfig controls how HTML pages become contract text
type ExtractConfig struct {
	ReaderMode bool `yaml:"reader_mode" mapstructure:"reader_mode"` // readability for pages without a content landmark
}

// HTTPConfig controls fetching contracts from URLs
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	MaxRetries    int           `yaml:"max_retries" mapstructure:"max_retries"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls the fetch cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig controls per-host request pacing in batch mode
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// LLMConfig configures the optional summary provider
type LLMConfig struct {
	Provider    string `yaml:"provider" mapstructure:"provider"` // openai, ollama, "" (disabled)
	Model       string `yaml:"model" mapstructure:"model"`
	APIKey      string `yaml:"-" mapstructure:"api_key"`
	BaseURL     string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	StrictRules bool   `yaml:"strict_rules" mapstructure:"strict_rules"`
	MaxTokens   int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
	ShowClauses   bool `yaml:"show_clauses" mapstructure:"show_clauses"`
}

// AuditConfig controls the action log
type AuditConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	File    string `yaml:"file" mapstructure:"file"`
}

// LogConfig controls diagnostic logging
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file,omitempty" mapstructure:"file"`
}

// MetricsConfig controls the Prometheus textfile export
type MetricsConfig struct {
	File string `yaml:"file,omitempty" mapstructure:"file"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			TopN: 5,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "clauseguard/0.1 (+https://github.com/ppiankov/clauseguard)",
			MaxBodyBytes:  5_000_000,
			RespectRobots: true,
			MaxRetries:    2,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       filepath.Join(homeDir(), ".clauseguard", "cache"),
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		LLM: LLMConfig{
			Timeout:     30,
			StrictRules: true,
			MaxTokens:   800,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
		Audit: AuditConfig{
			Enabled: true,
			File:    filepath.Join(homeDir(), ".clauseguard", "audit_log.json"),
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
