// Package robots performs a best-effort advisory robots.txt check. The
// decision surface of the scraper is its domain allowlist; a robots
// disallow is reported to the caller for logging, never enforced here.
package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/temoto/robotstxt"
)

// Checker fetches and caches robots.txt per host. It fails open: any fetch
// or parse problem means the URL is reported as allowed.
type Checker struct {
	HTTPClient *http.Client
	UserAgent  string
	// TTL bounds how long a fetched robots.txt is reused. Zero means 1h.
	TTL time.Duration

	cache map[string]cacheEntry
	now   func() time.Time
}

type cacheEntry struct {
	data   *robotstxt.RobotsData
	expiry time.Time
}

// Allowed reports whether rawURL may be fetched according to the host's
// robots.txt. The error is informational; when it is non-nil the first
// return value is always true.
func (c *Checker) Allowed(ctx context.Context, rawURL string) (bool, error) {
	if c.now == nil {
		c.now = time.Now
	}
	if c.cache == nil {
		c.cache = make(map[string]cacheEntry)
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true, fmt.Errorf("parse url: %w", err)
	}

	data, err := c.hostData(ctx, u)
	if err != nil {
		return true, err
	}
	group := data.FindGroup(c.UserAgent)
	return group.Test(u.Path), nil
}

func (c *Checker) hostData(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	key := u.Scheme + "://" + u.Host
	if ent, ok := c.cache[key]; ok && c.now().Before(ent.expiry) {
		return ent.data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	ttl := c.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	c.cache[key] = cacheEntry{data: data, expiry: c.now().Add(ttl)}
	return data, nil
}
