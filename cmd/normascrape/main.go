package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/saluddigital/normascrape/internal/app"
)

// cliOptions holds the parsed command-line flags before they overlay the
// configuration. Flags are the last, highest-precedence layer.
type cliOptions struct {
	fs *flag.FlagSet

	targetURL    string
	urlsFile     string
	configPath   string
	outputDir    string
	dbPath       string
	delay        time.Duration
	maxRetries   int
	timeout      time.Duration
	domains      string
	userAgent    string
	checkRobots  bool
	downloadPDFs bool
	pdfDir       string
	reportPath   string
	verbose      bool
}

func parseFlags(args []string) (*cliOptions, error) {
	o := &cliOptions{fs: flag.NewFlagSet("normascrape", flag.ContinueOnError)}
	o.fs.StringVar(&o.targetURL, "url", "", "Single URL to scrape (overrides -urls and the default page)")
	o.fs.StringVar(&o.urlsFile, "urls", "", "Path to a file with one URL per line ('#' starts a comment)")
	o.fs.StringVar(&o.configPath, "config", "", "Path to a YAML configuration file")
	o.fs.StringVar(&o.outputDir, "out", "", "Directory for JSON record artifacts")
	o.fs.StringVar(&o.dbPath, "db", "", "SQLite database path (empty disables persistence)")
	o.fs.DurationVar(&o.delay, "delay", 0, "Ethical delay between requests, e.g. 3s")
	o.fs.IntVar(&o.maxRetries, "max-retries", -1, "Retries after the first attempt (-1 keeps the configured value)")
	o.fs.DurationVar(&o.timeout, "timeout", 0, "Per-request timeout, e.g. 30s")
	o.fs.StringVar(&o.domains, "domains", "", "Comma-separated domain allowlist")
	o.fs.StringVar(&o.userAgent, "ua", "", "User-Agent header override")
	o.fs.BoolVar(&o.checkRobots, "check-robots", true, "Consult robots.txt (advisory)")
	o.fs.BoolVar(&o.downloadPDFs, "download-pdfs", false, "Discover and download linked PDFs")
	o.fs.StringVar(&o.pdfDir, "pdf-dir", "", "Directory for downloaded PDFs")
	o.fs.StringVar(&o.reportPath, "report", "", "Write a PDF session report to this path")
	o.fs.BoolVar(&o.verbose, "v", false, "Verbose logging")
	if err := o.fs.Parse(args); err != nil {
		return nil, err
	}
	return o, nil
}

// apply overlays the explicitly set flags onto cfg. String and duration
// zero values mean "not set"; booleans are applied only when the flag was
// present so -check-robots=false still takes effect.
func (o *cliOptions) apply(cfg *app.Config) {
	if o.targetURL != "" {
		cfg.URL = o.targetURL
	}
	if o.urlsFile != "" {
		cfg.URLsFile = o.urlsFile
	}
	if o.outputDir != "" {
		cfg.OutputDir = o.outputDir
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	if o.delay > 0 {
		cfg.DelayBetweenRequests = o.delay
	}
	if o.maxRetries >= 0 {
		cfg.MaxRetries = o.maxRetries
	}
	if o.timeout > 0 {
		cfg.RequestTimeout = o.timeout
	}
	if s := strings.TrimSpace(o.domains); s != "" {
		var list []string
		for _, p := range strings.Split(s, ",") {
			if v := strings.TrimSpace(p); v != "" {
				list = append(list, v)
			}
		}
		cfg.AllowedDomains = list
	}
	if o.userAgent != "" {
		cfg.UserAgent = o.userAgent
	}
	visited := map[string]bool{}
	o.fs.Visit(func(f *flag.Flag) { visited[f.Name] = true })
	if visited["check-robots"] {
		cfg.CheckRobots = o.checkRobots
	}
	if visited["download-pdfs"] {
		cfg.DownloadPDFs = o.downloadPDFs
	}
	if o.pdfDir != "" {
		cfg.PDFDir = o.pdfDir
	}
	if o.reportPath != "" {
		cfg.ReportPath = o.reportPath
	}
	cfg.Verbose = o.verbose
}

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(1)
	}

	if opts.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Precedence: defaults, then config file, then environment, then flags.
	cfg := app.Default()
	if opts.configPath != "" {
		if err := app.ApplyFile(&cfg, opts.configPath); err != nil {
			log.Error().Err(err).Msg("config file failed")
			os.Exit(1)
		}
	}
	if err := app.ApplyEnv(&cfg); err != nil {
		log.Error().Err(err).Msg("environment config failed")
		os.Exit(1)
	}
	opts.apply(&cfg)

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func run(cfg app.Config) error {
	ctx := context.Background()

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	// Per-URL failures are recorded, not fatal; only infrastructure
	// errors propagate to the exit code.
	_, err = a.Run(ctx)
	return err
}
