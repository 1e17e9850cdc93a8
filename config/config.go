package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds scraper configuration.
type Config struct {
	BaseURL              string
	CSVDir               string
	ImagesDir            string
	OutputFormat         string // csv, json, or dual
	SkipImages           bool
	Timeout              time.Duration
	UserAgent            string
	Verbose              bool
	MetricsAddr          string
	OverwriteTrackerSize int
}

// DefaultConfig returns the defaults for a full catalog run.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:              "http://books.toscrape.com/",
		CSVDir:               "csv",
		ImagesDir:            "images",
		OutputFormat:         "csv",
		SkipImages:           false,
		Timeout:              30 * time.Second,
		UserAgent:            "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		Verbose:              false,
		MetricsAddr:          "",
		OverwriteTrackerSize: 4096,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if strings.TrimSpace(c.CSVDir) == "" {
		return fmt.Errorf("csv directory cannot be empty")
	}
	if strings.TrimSpace(c.ImagesDir) == "" {
		return fmt.Errorf("images directory cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.OverwriteTrackerSize <= 0 {
		return fmt.Errorf("overwrite tracker size must be positive")
	}

	return nil
}

// SiteRoot returns the base URL without its trailing slash.
func (c *Config) SiteRoot() string {
	return strings.TrimRight(c.BaseURL, "/")
}

// CatalogueRoot is the prefix that replaces the "../../.." of listing links.
func (c *Config) CatalogueRoot() string {
	return c.SiteRoot() + "/catalogue"
}

// IndexURL is the catalog home page holding the category sidebar.
func (c *Config) IndexURL() string {
	return c.SiteRoot() + "/"
}
