package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/saluddigital/normascrape/internal/fetch"
)

// Config holds runtime configuration for the application. Values flow in
// with increasing precedence: defaults, YAML config file, NORMASCRAPE_*
// environment variables, command-line flags. No global config instance
// exists; the value is passed explicitly into every component.
type Config struct {
	// Targets
	URL      string
	URLsFile string
	// DefaultURL is scraped when no target is given.
	DefaultURL string

	// Ethical policy
	DelayBetweenRequests time.Duration
	MaxRetries           int
	RequestTimeout       time.Duration

	// Scraping
	AllowedDomains []string
	UserAgent      string
	MaxContentSize int64
	CheckRobots    bool

	// Outputs
	OutputDir    string
	DBPath       string
	DownloadPDFs bool
	PDFDir       string
	ReportPath   string

	Verbose bool
}

// Default returns the standard configuration for the ADRES normograma.
func Default() Config {
	return Config{
		DefaultURL:           "https://normograma.adres.gov.co/compilacion/docs/concepto_adres_20241209688471_2024.html",
		DelayBetweenRequests: 3 * time.Second,
		MaxRetries:           3,
		RequestTimeout:       30 * time.Second,
		AllowedDomains:       []string{"normograma.adres.gov.co", "adres.gov.co"},
		UserAgent:            "normascrape/1.0 (educational; +https://github.com/saluddigital/normascrape)",
		MaxContentSize:       fetch.DefaultMaxBodySize,
		CheckRobots:          true,
		PDFDir:               "data/downloads",
	}
}

// Validate rejects configurations that cannot run safely.
func (c *Config) Validate() error {
	if len(c.AllowedDomains) == 0 {
		return errors.New("config: allowed domain list must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("config: request timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return errors.New("config: max retries must not be negative")
	}
	if c.DelayBetweenRequests < 0 {
		return errors.New("config: delay between requests must not be negative")
	}
	if c.MaxContentSize <= 0 {
		return errors.New("config: max content size must be positive")
	}
	if c.UserAgent == "" {
		return errors.New("config: user agent must identify the tool and a contact")
	}
	if c.DefaultURL != "" && !fetch.HostAllowed(c.DefaultURL, c.AllowedDomains) {
		return fmt.Errorf("config: default url %s is outside the allowed domains", c.DefaultURL)
	}
	return nil
}
