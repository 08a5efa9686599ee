package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvString returns the trimmed value of key when it is set and non-empty.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

// EnvInt parses key as an integer.
func EnvInt(key string) (int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}

// EnvFloat parses key as a float.
func EnvFloat(key string) (float64, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}

// EnvDuration parses key with time.ParseDuration.
func EnvDuration(key string) (time.Duration, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}

// EnvBool parses key with strconv.ParseBool.
func EnvBool(key string) (bool, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return false, false, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}

// ApplyEnv overrides fields of c from SCRAPER_* environment variables.
func (c *Config) ApplyEnv() error {
	if v, ok := EnvString("SCRAPER_SEARCH_URL"); ok {
		c.SearchURL = v
	}
	if v, ok := EnvString("SCRAPER_KEYWORD_PARAM"); ok {
		c.KeywordParam = v
	}
	if v, ok := EnvString("SCRAPER_USER_AGENT"); ok {
		c.UserAgent = v
	}
	if v, ok := EnvString("SCRAPER_ACCEPT_LANGUAGE"); ok {
		c.AcceptLanguage = v
	}
	if v, ok := EnvString("SCRAPER_LISTEN_ADDR"); ok {
		c.ListenAddr = v
	}
	if v, ok := EnvString("SCRAPER_ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(v)
	}

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"SCRAPER_DELAY", &c.Delay},
		{"SCRAPER_RANDOM_DELAY", &c.RandomDelay},
		{"SCRAPER_TIMEOUT", &c.Timeout},
	}
	for _, d := range durations {
		v, ok, err := EnvDuration(d.key)
		if err != nil {
			return err
		}
		if ok {
			*d.target = v
		}
	}

	ints := []struct {
		key    string
		target *int
	}{
		{"SCRAPER_PARALLEL", &c.Parallelism},
		{"SCRAPER_CLIENT_BURST", &c.ClientBurst},
		{"SCRAPER_CLIENT_TABLE_SIZE", &c.ClientTableSize},
	}
	for _, i := range ints {
		v, ok, err := EnvInt(i.key)
		if err != nil {
			return err
		}
		if ok {
			*i.target = v
		}
	}

	if v, ok, err := EnvFloat("SCRAPER_CLIENT_RATE"); err != nil {
		return err
	} else if ok {
		c.ClientRate = v
	}
	if v, ok, err := EnvBool("SCRAPER_VERBOSE"); err != nil {
		return err
	} else if ok {
		c.Verbose = v
	}
	return nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
