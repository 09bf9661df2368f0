package app

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/saluddigital/normascrape/internal/fetch"
	"github.com/saluddigital/normascrape/internal/pdfdl"
	"github.com/saluddigital/normascrape/internal/report"
	"github.com/saluddigital/normascrape/internal/robots"
	"github.com/saluddigital/normascrape/internal/scraper"
	"github.com/saluddigital/normascrape/internal/store"
)

// App owns the assembled pipeline components for one run.
type App struct {
	cfg     Config
	fetcher *fetch.Client
	scraper *scraper.Scraper
	store   *store.Store
	robots  *robots.Checker
}

// Summary totals one pipeline run.
type Summary struct {
	URLs           int `json:"urls"`
	Succeeded      int `json:"exitosos"`
	Failed         int `json:"fallidos"`
	Stored         int `json:"almacenados"`
	PDFSessions    int `json:"sesiones_pdf"`
	PDFsDownloaded int `json:"pdfs_descargados"`
}

// New validates cfg and builds the pipeline. The returned App must be
// closed after Run.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg}
	a.fetcher = &fetch.Client{
		UserAgent:      cfg.UserAgent,
		AllowedDomains: cfg.AllowedDomains,
		Timeout:        cfg.RequestTimeout,
		MaxRetries:     cfg.MaxRetries,
		BaseDelay:      cfg.DelayBetweenRequests,
		MaxBodySize:    cfg.MaxContentSize,
	}
	a.scraper = scraper.New(a.fetcher,
		scraper.WithDelay(cfg.DelayBetweenRequests),
		scraper.WithDefaultURL(cfg.DefaultURL),
	)
	if cfg.CheckRobots {
		a.robots = &robots.Checker{
			HTTPClient: &http.Client{Timeout: cfg.RequestTimeout},
			UserAgent:  cfg.UserAgent,
		}
	}
	if cfg.DBPath != "" {
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open document store: %w", err)
		}
		a.store = st
	}
	return a, nil
}

// Close releases the document store.
func (a *App) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

// Run executes the whole pipeline: collect target URLs, consult robots.txt,
// scrape each page, persist and save the records, then download linked PDFs
// and write the session report when configured.
func (a *App) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	urls, err := a.collectURLs()
	if err != nil {
		return sum, err
	}
	sum.URLs = len(urls)
	log.Info().Int("urls", len(urls)).Msg("starting scrape session")

	a.checkRobots(ctx, urls)

	records := a.scraper.ScrapeAll(ctx, urls)
	for i, rec := range records {
		if rec.OK() {
			sum.Succeeded++
		} else {
			sum.Failed++
		}
		if a.store != nil && rec.OK() {
			if _, err := a.store.StoreDocument(rec); err != nil {
				log.Warn().Err(err).Str("url", rec.URL).Msg("store document failed")
			} else {
				sum.Stored++
			}
		}
		if a.cfg.OutputDir != "" {
			if err := a.saveRecord(rec, i); err != nil {
				log.Warn().Err(err).Str("url", rec.URL).Msg("save record failed")
			}
		}
	}

	if a.cfg.DownloadPDFs {
		a.downloadPDFs(ctx, records, &sum)
	}

	if a.cfg.ReportPath != "" {
		if err := report.WriteSessionReport(records, a.cfg.ReportPath); err != nil {
			log.Warn().Err(err).Str("path", a.cfg.ReportPath).Msg("write report failed")
		} else {
			log.Info().Str("path", a.cfg.ReportPath).Msg("wrote session report")
		}
	}

	log.Info().
		Int("ok", sum.Succeeded).
		Int("errors", sum.Failed).
		Int("stored", sum.Stored).
		Int("pdfs", sum.PDFsDownloaded).
		Msg("scrape session finished")
	return sum, nil
}

// collectURLs resolves the target list: an explicit URL wins, then a URL
// file, then the configured default page.
func (a *App) collectURLs() ([]string, error) {
	if a.cfg.URL != "" {
		return []string{a.cfg.URL}, nil
	}
	if a.cfg.URLsFile != "" {
		return readURLsFile(a.cfg.URLsFile)
	}
	return []string{a.cfg.DefaultURL}, nil
}

// readURLsFile reads one URL per line. Blank lines and lines starting with
// '#' are skipped.
func readURLsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open urls file: %w", err)
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read urls file: %w", err)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("urls file %s contains no URLs", path)
	}
	return urls, nil
}

// checkRobots consults robots.txt once per host. Findings are advisory:
// disallowed targets are logged, never skipped, since the allowlist already
// restricts the run to institutional pages.
func (a *App) checkRobots(ctx context.Context, urls []string) {
	if a.robots == nil {
		return
	}
	seen := make(map[string]bool)
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil || seen[u.Host] {
			continue
		}
		seen[u.Host] = true
		allowed, err := a.robots.Allowed(ctx, raw)
		if err != nil {
			log.Debug().Err(err).Str("host", u.Host).Msg("robots.txt unavailable")
			continue
		}
		if !allowed {
			log.Warn().Str("url", raw).Msg("robots.txt disallows this path")
		}
	}
}

func (a *App) saveRecord(rec scraper.Record, idx int) error {
	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("registro_%03d_%s.json", idx+1, time.Now().Format("20060102_150405"))
	path := filepath.Join(a.cfg.OutputDir, name)
	if err := rec.SaveJSON(path); err != nil {
		return err
	}
	log.Info().Str("path", path).Str("estado", rec.Status).Msg("saved record")
	return nil
}

func (a *App) downloadPDFs(ctx context.Context, records []scraper.Record, sum *Summary) {
	dl := &pdfdl.Downloader{
		Fetcher:        a.fetcher,
		AllowedDomains: a.cfg.AllowedDomains,
		Delay:          a.cfg.DelayBetweenRequests,
	}
	if a.store != nil {
		dl.Sink = a.store
	}
	for _, rec := range records {
		if !rec.OK() {
			continue
		}
		session, err := dl.DownloadAll(ctx, rec.URL, a.cfg.PDFDir)
		if err != nil {
			log.Warn().Err(err).Str("url", rec.URL).Msg("pdf session failed")
			continue
		}
		sum.PDFSessions++
		sum.PDFsDownloaded += session.PDFsDownloaded
	}
}
