// Package fetch issues polite, bounded-retry HTTP GETs against an
// allowlisted set of hosts. Every fetch waits an ethical delay before the
// first attempt and backs off exponentially between retries; the delay side
// effect is injectable so tests run without wall-clock waits.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// Status classifies the outcome of one fetch operation.
type Status string

const (
	StatusSuccess         Status = "success"
	StatusValidationError Status = "validation_error"
	StatusNetworkError    Status = "network_error"
	StatusHTTPError       Status = "http_error"
	StatusOversized       Status = "oversized"
)

// DefaultMaxBodySize caps response bodies at 10 MiB.
const DefaultMaxBodySize = 10 * 1024 * 1024

// Result is the outcome of a fetch, ephemeral within one scrape.
type Result struct {
	Status        Status
	StatusCode    int
	Body          []byte
	ContentType   string
	Server        string
	ContentLength int
	// Attempts counts every request made, including the successful one.
	Attempts int
	Err      error
}

// OK reports whether the fetch produced a usable body.
func (r Result) OK() bool { return r.Status == StatusSuccess }

// Client performs validated, retried GET requests. The HTTP client is shared
// across calls for connection reuse; there is no concurrent access in this
// pipeline so no locking is needed.
type Client struct {
	HTTPClient     *http.Client
	UserAgent      string
	AllowedDomains []string
	// Timeout bounds each individual request attempt.
	Timeout time.Duration
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int
	// BaseDelay is both the ethical pre-request delay and the unit of the
	// exponential backoff: retry n waits BaseDelay * 2^n.
	BaseDelay   time.Duration
	MaxBodySize int64
	// Sleep is the delay side effect; tests replace it. Nil means time.Sleep.
	Sleep func(time.Duration)
}

func (c *Client) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	if c.Sleep != nil {
		c.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) maxBodySize() int64 {
	if c.MaxBodySize > 0 {
		return c.MaxBodySize
	}
	return DefaultMaxBodySize
}

// HostAllowed reports whether rawURL passes a domain allowlist: its network
// location must contain one of the domain substrings.
func HostAllowed(rawURL string, domains []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Host)
	for _, d := range domains {
		if d != "" && strings.Contains(host, strings.ToLower(d)) {
			return true
		}
	}
	return false
}

// Allowed reports whether rawURL passes the client's domain allowlist.
func (c *Client) Allowed(rawURL string) bool {
	return HostAllowed(rawURL, c.AllowedDomains)
}

// Fetch GETs rawURL with the full ethical-delay and retry policy applied.
// It never returns a nil-status result: failures are classified in
// Result.Status rather than surfaced as errors, so callers branch on the
// status alone. A URL outside the allowlist fails immediately with zero
// network calls.
func (c *Client) Fetch(ctx context.Context, rawURL string) Result {
	return c.fetch(ctx, rawURL, false)
}

// FetchBinary GETs rawURL under the same allowlist, delay, and retry policy
// as Fetch, tuned for binary payloads: each attempt gets twice the
// configured timeout and the Accept header requests any content type.
func (c *Client) FetchBinary(ctx context.Context, rawURL string) Result {
	return c.fetch(ctx, rawURL, true)
}

func (c *Client) fetch(ctx context.Context, rawURL string, binary bool) Result {
	if !c.Allowed(rawURL) {
		return Result{
			Status: StatusValidationError,
			Err:    fmt.Errorf("dominio no permitido: %s", rawURL),
		}
	}

	// Respect-the-server policy: wait before the first request too.
	log.Debug().Str("url", rawURL).Dur("delay", c.BaseDelay).Msg("ethical delay before request")
	c.sleep(c.BaseDelay)

	// The backoff only generates the wait intervals; the injectable sleeper
	// performs them. RandomizationFactor 0 keeps the sequence exactly
	// BaseDelay*2, BaseDelay*4, ... as the retry policy requires.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.BaseDelay * 2
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = c.BaseDelay << 12
	bo.MaxElapsedTime = 0
	bo.Reset()

	var last Result
	attempts := c.MaxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			wait := bo.NextBackOff()
			log.Info().
				Str("url", rawURL).
				Int("attempt", attempt).
				Dur("wait", wait).
				Msg("retrying after backoff")
			c.sleep(wait)
		}

		last = c.tryOnce(ctx, rawURL, binary)
		last.Attempts = attempt
		switch last.Status {
		case StatusSuccess:
			log.Info().
				Str("url", rawURL).
				Int("status", last.StatusCode).
				Int("bytes", last.ContentLength).
				Int("attempts", last.Attempts).
				Msg("fetch succeeded")
			return last
		case StatusOversized:
			// Policy violation, not a transient fault. Never retried.
			log.Warn().Str("url", rawURL).Int("bytes", last.ContentLength).Msg("response exceeds size cap")
			return last
		}
		log.Warn().
			Str("url", rawURL).
			Int("attempt", attempt).
			Str("kind", string(last.Status)).
			Err(last.Err).
			Msg("fetch attempt failed")
	}
	return last
}

func (c *Client) tryOnce(ctx context.Context, rawURL string, binary bool) Result {
	if c.Timeout > 0 {
		timeout := c.Timeout
		if binary {
			// Binary payloads are typically larger than pages.
			timeout *= 2
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{Status: StatusNetworkError, Err: fmt.Errorf("new request: %w", err)}
	}
	c.setHeaders(req, binary)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return Result{Status: StatusNetworkError, Err: err}
	}
	defer resp.Body.Close()

	maxSize := c.maxBodySize()
	if resp.ContentLength > maxSize {
		return Result{
			Status:        StatusOversized,
			StatusCode:    resp.StatusCode,
			ContentLength: int(resp.ContentLength),
			Err:           fmt.Errorf("contenido muy grande: %d bytes", resp.ContentLength),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{
			Status:     StatusHTTPError,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{Status: StatusNetworkError, StatusCode: resp.StatusCode, Err: err}
		}
		return Result{Status: StatusNetworkError, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > maxSize {
		return Result{
			Status:        StatusOversized,
			StatusCode:    resp.StatusCode,
			ContentLength: len(body),
			Err:           fmt.Errorf("contenido muy grande: más de %d bytes", maxSize),
		}
	}

	return Result{
		Status:        StatusSuccess,
		StatusCode:    resp.StatusCode,
		Body:          body,
		ContentType:   resp.Header.Get("Content-Type"),
		Server:        resp.Header.Get("Server"),
		ContentLength: len(body),
	}
}

// setHeaders applies the fixed, non-deceptive header set. The User-Agent
// must identify the tool and its purpose; that is a policy requirement of
// scraping government sites, not a nicety.
func (c *Client) setHeaders(req *http.Request, binary bool) {
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if binary {
		req.Header.Set("Accept", "application/pdf,application/octet-stream;q=0.9,*/*;q=0.8")
	} else {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	}
	req.Header.Set("Accept-Language", "es-ES,es;q=0.9,en;q=0.8")
	req.Header.Set("Cache-Control", "max-age=0")
}
