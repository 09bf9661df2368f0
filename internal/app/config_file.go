package app

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the YAML configuration schema. Sections mirror the policy
// areas of Config; unset fields keep their current value.
type FileConfig struct {
	URL        string `yaml:"url"`
	URLsFile   string `yaml:"urlsFile"`
	DefaultURL string `yaml:"defaultURL"`

	Ethical struct {
		Delay      time.Duration `yaml:"delay"`
		MaxRetries *int          `yaml:"maxRetries"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"ethical"`

	Scraping struct {
		AllowedDomains []string `yaml:"allowedDomains"`
		UserAgent      string   `yaml:"userAgent"`
		MaxContentSize int64    `yaml:"maxContentSize"`
		CheckRobots    *bool    `yaml:"checkRobots"`
	} `yaml:"scraping"`

	Output struct {
		Dir    string `yaml:"dir"`
		DB     string `yaml:"db"`
		Report string `yaml:"report"`
	} `yaml:"output"`

	PDF struct {
		Download bool   `yaml:"download"`
		Dir      string `yaml:"dir"`
	} `yaml:"pdf"`
}

// ApplyFile overlays the YAML file at path onto cfg.
func ApplyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.URL != "" {
		cfg.URL = fc.URL
	}
	if fc.URLsFile != "" {
		cfg.URLsFile = fc.URLsFile
	}
	if fc.DefaultURL != "" {
		cfg.DefaultURL = fc.DefaultURL
	}
	if fc.Ethical.Delay > 0 {
		cfg.DelayBetweenRequests = fc.Ethical.Delay
	}
	if fc.Ethical.MaxRetries != nil {
		cfg.MaxRetries = *fc.Ethical.MaxRetries
	}
	if fc.Ethical.Timeout > 0 {
		cfg.RequestTimeout = fc.Ethical.Timeout
	}
	if len(fc.Scraping.AllowedDomains) > 0 {
		cfg.AllowedDomains = fc.Scraping.AllowedDomains
	}
	if fc.Scraping.UserAgent != "" {
		cfg.UserAgent = fc.Scraping.UserAgent
	}
	if fc.Scraping.MaxContentSize > 0 {
		cfg.MaxContentSize = fc.Scraping.MaxContentSize
	}
	if fc.Scraping.CheckRobots != nil {
		cfg.CheckRobots = *fc.Scraping.CheckRobots
	}
	if fc.Output.Dir != "" {
		cfg.OutputDir = fc.Output.Dir
	}
	if fc.Output.DB != "" {
		cfg.DBPath = fc.Output.DB
	}
	if fc.Output.Report != "" {
		cfg.ReportPath = fc.Output.Report
	}
	if fc.PDF.Download {
		cfg.DownloadPDFs = true
	}
	if fc.PDF.Dir != "" {
		cfg.PDFDir = fc.PDF.Dir
	}
	return nil
}
