package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate performs rule validation on the loaded configuration.
// Load calls it automatically. A missing vision API key is not an error here;
// identification reports it when actually attempted.
func (c *Config) Validate() error {
	c.Backend.URL = strings.TrimRight(strings.TrimSpace(c.Backend.URL), "/")
	if err := validateURL(c.Backend.URL); err != nil {
		return fmt.Errorf("backend.url: %w", err)
	}
	if err := validateURL(c.Vision.BaseURL); err != nil {
		return fmt.Errorf("vision.base_url: %w", err)
	}
	if c.Vision.MaxTokens <= 0 {
		return fmt.Errorf("vision.max_tokens must be > 0 (got %d)", c.Vision.MaxTokens)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535 (got %d)", c.Server.Port)
	}
	if c.Prices.SnapshotHour < 0 || c.Prices.SnapshotHour > 23 {
		return fmt.Errorf("prices.snapshot_hour must be between 0 and 23 (got %d)", c.Prices.SnapshotHour)
	}
	if c.Prices.RequestsPerSecond <= 0 {
		return fmt.Errorf("prices.requests_per_second must be > 0 (got %d)", c.Prices.RequestsPerSecond)
	}
	if c.Prices.HistoryDays <= 0 {
		return fmt.Errorf("prices.history_days must be > 0 (got %d)", c.Prices.HistoryDays)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https (got %q)", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required (got %q)", raw)
	}
	return nil
}
