package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

// testClient builds a Client aimed at srv with recorded, non-blocking sleeps.
func testClient(srv *httptest.Server, retries int, base time.Duration, slept *[]time.Duration) *Client {
	u, _ := url.Parse(srv.URL)
	return &Client{
		UserAgent:      "normascrape-test/1.0 (+https://github.com/saluddigital/normascrape)",
		AllowedDomains: []string{u.Host},
		Timeout:        2 * time.Second,
		MaxRetries:     retries,
		BaseDelay:      base,
		Sleep:          func(d time.Duration) { *slept = append(*slept, d) },
	}
}

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "normascrape") {
			t.Errorf("missing identifying user agent, got %q", ua)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Server", "gov-web")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	var slept []time.Duration
	c := testClient(srv, 3, time.Second, &slept)
	res := c.Fetch(context.Background(), srv.URL)

	if !res.OK() {
		t.Fatalf("expected success, got %s (%v)", res.Status, res.Err)
	}
	if res.Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", res.Attempts)
	}
	if res.StatusCode != 200 || res.Server != "gov-web" || len(res.Body) == 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	// Only the ethical pre-delay, no backoff waits.
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single pre-delay, got %v", slept)
	}
}

func TestFetch_RetryBackoffSequence(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	base := 500 * time.Millisecond
	var slept []time.Duration
	c := testClient(srv, 3, base, &slept)
	res := c.Fetch(context.Background(), srv.URL)

	if !res.OK() {
		t.Fatalf("expected success after retries, got %s (%v)", res.Status, res.Err)
	}
	if res.Attempts != 3 {
		t.Fatalf("expected attempts_made == 3, got %d", res.Attempts)
	}
	// Pre-delay, then base*2^1 and base*2^2 between attempts.
	want := []time.Duration{base, 2 * base, 4 * base}
	if len(slept) != len(want) {
		t.Fatalf("expected %d delays, got %v", len(want), slept)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Fatalf("delay %d: want %v, got %v (all: %v)", i, want[i], slept[i], slept)
		}
	}
}

func TestFetch_ExhaustedRetriesHTTPError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var slept []time.Duration
	c := testClient(srv, 2, time.Second, &slept)
	res := c.Fetch(context.Background(), srv.URL)

	if res.Status != StatusHTTPError {
		t.Fatalf("expected http_error, got %s", res.Status)
	}
	if res.Attempts != 3 || calls != 3 {
		t.Fatalf("expected 3 attempts, got attempts=%d calls=%d", res.Attempts, calls)
	}
	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected last status code recorded, got %d", res.StatusCode)
	}
}

func TestFetch_ValidationErrorNoNetworkCall(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	var slept []time.Duration
	c := testClient(srv, 3, time.Second, &slept)
	res := c.Fetch(context.Background(), "https://evil.example.com/docs/x.html")

	if res.Status != StatusValidationError {
		t.Fatalf("expected validation_error, got %s", res.Status)
	}
	if calls != 0 {
		t.Fatalf("expected zero network calls, got %d", calls)
	}
	if len(slept) != 0 {
		t.Fatalf("expected no delays for rejected URL, got %v", slept)
	}
}

func TestFetch_OversizedNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Length", "64")
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	var slept []time.Duration
	c := testClient(srv, 3, time.Second, &slept)
	c.MaxBodySize = 32
	res := c.Fetch(context.Background(), srv.URL)

	if res.Status != StatusOversized {
		t.Fatalf("expected oversized, got %s", res.Status)
	}
	if calls != 1 || res.Attempts != 1 {
		t.Fatalf("oversized must not retry: calls=%d attempts=%d", calls, res.Attempts)
	}
}

func TestFetch_OversizedBodyWithoutContentLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Transfer-Encoding", "chunked")
		_, _ = w.Write([]byte(strings.Repeat("y", 100)))
	}))
	defer srv.Close()

	var slept []time.Duration
	c := testClient(srv, 0, 0, &slept)
	c.MaxBodySize = 50
	res := c.Fetch(context.Background(), srv.URL)

	if res.Status != StatusOversized {
		t.Fatalf("expected oversized from body read, got %s", res.Status)
	}
}

func TestFetch_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	u, _ := url.Parse(srv.URL)
	srv.Close() // connection refused from here on

	var slept []time.Duration
	c := &Client{
		AllowedDomains: []string{u.Host},
		Timeout:        time.Second,
		MaxRetries:     1,
		Sleep:          func(d time.Duration) { slept = append(slept, d) },
	}
	res := c.Fetch(context.Background(), srv.URL)

	if res.Status != StatusNetworkError {
		t.Fatalf("expected network_error, got %s", res.Status)
	}
	if res.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", res.Attempts)
	}
}

func TestAllowed_SubstringMatch(t *testing.T) {
	c := &Client{AllowedDomains: []string{"normograma.adres.gov.co", "adres.gov.co"}}

	cases := []struct {
		url  string
		want bool
	}{
		{"https://normograma.adres.gov.co/compilacion/doc.html", true},
		{"https://www.adres.gov.co/paginas/inicio", true},
		{"https://evil.example.com/doc.html", false},
		{"not a url", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := c.Allowed(tc.url); got != tc.want {
			t.Errorf("Allowed(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestFetchBinary_DoubledTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	var slept []time.Duration
	c := testClient(srv, 0, 0, &slept)
	c.Timeout = 200 * time.Millisecond

	if res := c.Fetch(context.Background(), srv.URL); res.Status != StatusNetworkError {
		t.Fatalf("page fetch should hit its timeout, got %s", res.Status)
	}

	res := c.FetchBinary(context.Background(), srv.URL)
	if !res.OK() {
		t.Fatalf("binary fetch should survive within the doubled timeout, got %s (%v)", res.Status, res.Err)
	}
	if string(res.Body) != "%PDF-1.4" {
		t.Fatalf("unexpected body %q", res.Body)
	}
}

func TestFetchBinary_AcceptHeader(t *testing.T) {
	var accepts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accepts = append(accepts, r.Header.Get("Accept"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var slept []time.Duration
	c := testClient(srv, 0, 0, &slept)
	if res := c.Fetch(context.Background(), srv.URL); !res.OK() {
		t.Fatalf("fetch failed: %s", res.Status)
	}
	if res := c.FetchBinary(context.Background(), srv.URL); !res.OK() {
		t.Fatalf("binary fetch failed: %s", res.Status)
	}

	if len(accepts) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(accepts))
	}
	if !strings.HasPrefix(accepts[0], "text/html") {
		t.Errorf("page Accept = %q", accepts[0])
	}
	if !strings.HasPrefix(accepts[1], "application/pdf") {
		t.Errorf("binary Accept = %q", accepts[1])
	}
}
