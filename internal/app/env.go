package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnv overlays NORMASCRAPE_* environment variables onto cfg. Environment
// values sit between the config file and command-line flags in precedence.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv("NORMASCRAPE_URL"); v != "" {
		cfg.URL = v
	}
	if v := os.Getenv("NORMASCRAPE_URLS_FILE"); v != "" {
		cfg.URLsFile = v
	}
	if v := os.Getenv("NORMASCRAPE_DEFAULT_URL"); v != "" {
		cfg.DefaultURL = v
	}
	if v := os.Getenv("NORMASCRAPE_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("NORMASCRAPE_DELAY: %w", err)
		}
		cfg.DelayBetweenRequests = d
	}
	if v := os.Getenv("NORMASCRAPE_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("NORMASCRAPE_MAX_RETRIES: %w", err)
		}
		cfg.MaxRetries = n
	}
	if v := os.Getenv("NORMASCRAPE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("NORMASCRAPE_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if v := os.Getenv("NORMASCRAPE_ALLOWED_DOMAINS"); v != "" {
		var domains []string
		for _, d := range strings.Split(v, ",") {
			d = strings.TrimSpace(d)
			if d != "" {
				domains = append(domains, d)
			}
		}
		cfg.AllowedDomains = domains
	}
	if v := os.Getenv("NORMASCRAPE_UA"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("NORMASCRAPE_MAX_CONTENT_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("NORMASCRAPE_MAX_CONTENT_SIZE: %w", err)
		}
		cfg.MaxContentSize = n
	}
	if v := os.Getenv("NORMASCRAPE_CHECK_ROBOTS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("NORMASCRAPE_CHECK_ROBOTS: %w", err)
		}
		cfg.CheckRobots = b
	}
	if v := os.Getenv("NORMASCRAPE_OUTPUT"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("NORMASCRAPE_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("NORMASCRAPE_PDF_DIR"); v != "" {
		cfg.PDFDir = v
	}
	if v := os.Getenv("NORMASCRAPE_REPORT"); v != "" {
		cfg.ReportPath = v
	}
	return nil
}
