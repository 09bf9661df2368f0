// Package scraper composes fetch, extract, and analyze into the single
// "scrape one URL" operation and its sequential multi-URL variant. Every
// outcome, success or failure, becomes a uniform Record; the orchestrator
// never lets an error or panic escape to its caller.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/saluddigital/normascrape/internal/analyze"
	"github.com/saluddigital/normascrape/internal/extract"
	"github.com/saluddigital/normascrape/internal/fetch"
)

// Fetcher is the fetch dependency; the production implementation is
// *fetch.Client, tests supply mocks.
type Fetcher interface {
	Fetch(ctx context.Context, url string) fetch.Result
}

// Scraper orchestrates the fetch-resolve-extract-analyze pipeline.
type Scraper struct {
	fetcher  Fetcher
	analyzer *analyze.Analyzer
	// delay is the ethical wait between documents in ScrapeAll; the
	// per-request delays live inside the fetcher.
	delay      time.Duration
	sleep      func(time.Duration)
	now        func() time.Time
	defaultURL string
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithDelay sets the inter-document ethical delay for ScrapeAll.
func WithDelay(d time.Duration) Option {
	return func(s *Scraper) { s.delay = d }
}

// WithSleep replaces the delay side effect, used by tests.
func WithSleep(f func(time.Duration)) Option {
	return func(s *Scraper) { s.sleep = f }
}

// WithClock replaces the timestamp source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scraper) { s.now = now }
}

// WithDefaultURL sets the URL used when Scrape is called with an empty one.
func WithDefaultURL(u string) Option {
	return func(s *Scraper) { s.defaultURL = u }
}

// WithAnalyzer replaces the content analyzer.
func WithAnalyzer(a *analyze.Analyzer) Option {
	return func(s *Scraper) { s.analyzer = a }
}

// New returns a Scraper over the given fetcher.
func New(fetcher Fetcher, opts ...Option) *Scraper {
	s := &Scraper{
		fetcher:  fetcher,
		analyzer: analyze.New(),
		sleep:    time.Sleep,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scrape processes one URL through the full pipeline and always returns a
// Record: failures are classified, panics are converted to processing
// errors. An empty url falls back to the configured default.
func (s *Scraper) Scrape(ctx context.Context, url string) (rec Record) {
	if url == "" {
		url = s.defaultURL
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("url", url).Interface("panic", r).Msg("pipeline panic recovered")
			rec = s.errorRecord(url, ErrProcessing, fmt.Sprintf("error en procesamiento: %v", r), rec.Attempts)
		}
	}()

	log.Info().Str("url", url).Msg("starting scrape")

	res := s.fetcher.Fetch(ctx, url)
	if !res.OK() {
		return s.fetchErrorRecord(url, res)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return s.errorRecord(url, ErrProcessing, fmt.Sprintf("error analizando HTML: %v", err), res.Attempts)
	}

	container := extract.ResolveMainContainer(doc)
	if container == nil {
		return s.errorRecord(url, ErrParsing,
			"no se pudo encontrar el contenedor principal de contenido", res.Attempts)
	}

	text := extract.CleanText(container)
	analysis := s.analyzer.Analyze(text, url)

	now := s.now()
	log.Info().
		Str("url", url).
		Int("chars", utf8.RuneCountInString(text)).
		Str("tipo", analysis.Classification.DocumentType).
		Msg("scrape succeeded")

	return Record{
		URL:           url,
		Status:        StatusOK,
		ExtractedAt:   now.Format(time.RFC3339),
		TimestampUnix: now.Unix(),
		Text:          text,
		CharCount:     utf8.RuneCountInString(text),
		WordCount:     len(strings.Fields(text)),
		Attempts:      res.Attempts,
		Analysis:      &analysis,
		HTTPMeta: &HTTPMetadata{
			StatusCode:    res.StatusCode,
			ContentType:   res.ContentType,
			Server:        res.Server,
			ContentLength: res.ContentLength,
		},
	}
}

// ScrapeAll processes urls sequentially, waiting the ethical inter-document
// delay between consecutive items (not before the first). Individual
// failures are recorded and the batch always completes.
func (s *Scraper) ScrapeAll(ctx context.Context, urls []string) []Record {
	records := make([]Record, 0, len(urls))
	log.Info().Int("total", len(urls)).Msg("processing url batch")

	for i, url := range urls {
		if i > 0 && s.delay > 0 {
			log.Debug().Dur("delay", s.delay).Msg("waiting before next document")
			s.sleep(s.delay)
		}
		log.Info().Int("item", i+1).Int("total", len(urls)).Str("url", url).Msg("batch progress")
		records = append(records, s.Scrape(ctx, url))
	}
	return records
}

// fetchErrorRecord maps a failed fetch onto the error envelope. Oversized
// responses surface as http_error: the fetch was answered, the policy
// rejected the payload.
func (s *Scraper) fetchErrorRecord(url string, res fetch.Result) Record {
	kind := ErrExtraction
	switch res.Status {
	case fetch.StatusValidationError:
		kind = ErrValidation
	case fetch.StatusNetworkError:
		kind = ErrNetwork
	case fetch.StatusHTTPError, fetch.StatusOversized:
		kind = ErrHTTP
	}
	msg := "error desconocido"
	if res.Err != nil {
		msg = res.Err.Error()
	}
	return s.errorRecord(url, kind, msg, res.Attempts)
}

func (s *Scraper) errorRecord(url, kind, message string, attempts int) Record {
	now := s.now()
	log.Warn().Str("url", url).Str("error_type", kind).Str("error", message).Msg("scrape failed")
	return Record{
		URL:           url,
		Status:        StatusError,
		ErrorAt:       now.Format(time.RFC3339),
		TimestampUnix: now.Unix(),
		Attempts:      attempts,
		ErrorType:     kind,
		ErrorMessage:  message,
	}
}
