package config

import (
	"fmt"
	"net/url"
	"time"
)

// MinDelay is the shortest politeness delay allowed before a search request.
const MinDelay = time.Second

// Config holds scraper and API configuration.
type Config struct {
	SearchURL      string        `yaml:"search_url"`
	KeywordParam   string        `yaml:"keyword_param"`
	Delay          time.Duration `yaml:"delay"`
	RandomDelay    time.Duration `yaml:"random_delay"`
	Timeout        time.Duration `yaml:"timeout"`
	Parallelism    int           `yaml:"parallelism"`
	UserAgent      string        `yaml:"user_agent"`
	AcceptLanguage string        `yaml:"accept_language"`

	ListenAddr      string   `yaml:"listen_addr"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	ClientRate      float64  `yaml:"client_rate"`
	ClientBurst     int      `yaml:"client_burst"`
	ClientTableSize int      `yaml:"client_table_size"`

	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns conservative defaults for the marketplace target.
func DefaultConfig() *Config {
	return &Config{
		SearchURL:       "https://www.amazon.com/s",
		KeywordParam:    "k",
		Delay:           MinDelay,
		RandomDelay:     0,
		Timeout:         10 * time.Second,
		Parallelism:     2,
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		AcceptLanguage:  "en-US,en;q=0.5",
		ListenAddr:      ":3000",
		AllowedOrigins:  []string{"*"},
		ClientRate:      1,
		ClientBurst:     3,
		ClientTableSize: 1024,
		Verbose:         false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.SearchURL == "" {
		return fmt.Errorf("search URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.SearchURL)
	if err != nil {
		return fmt.Errorf("invalid search URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("search URL must include a host")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("search URL must use http or https")
	}

	if c.KeywordParam == "" {
		return fmt.Errorf("keyword param cannot be empty")
	}
	if c.Delay < MinDelay {
		return fmt.Errorf("delay must be at least %v", MinDelay)
	}
	if c.RandomDelay < 0 {
		return fmt.Errorf("random delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if c.ClientRate <= 0 {
		return fmt.Errorf("client rate must be positive")
	}
	if c.ClientBurst <= 0 {
		return fmt.Errorf("client burst must be positive")
	}
	if c.ClientTableSize <= 0 {
		return fmt.Errorf("client table size must be positive")
	}

	return nil
}

// BuildSearchURL returns the results page URL for keyword.
func (c *Config) BuildSearchURL(keyword string) (string, error) {
	parsed, err := url.Parse(c.SearchURL)
	if err != nil {
		return "", fmt.Errorf("parse search url: %w", err)
	}
	query := parsed.Query()
	query.Set(c.KeywordParam, keyword)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
