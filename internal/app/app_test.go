package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty allowlist", func(c *Config) { c.AllowedDomains = nil }},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }},
		{"negative delay", func(c *Config) { c.DelayBetweenRequests = -time.Second }},
		{"empty user agent", func(c *Config) { c.UserAgent = "" }},
		{"default url off allowlist", func(c *Config) { c.DefaultURL = "https://evil.example.com/x" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("NORMASCRAPE_URL", "https://adres.gov.co/pagina")
	t.Setenv("NORMASCRAPE_DELAY", "5s")
	t.Setenv("NORMASCRAPE_MAX_RETRIES", "7")
	t.Setenv("NORMASCRAPE_ALLOWED_DOMAINS", "adres.gov.co, otro.gov.co")
	t.Setenv("NORMASCRAPE_CHECK_ROBOTS", "false")

	cfg := Default()
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.URL != "https://adres.gov.co/pagina" {
		t.Errorf("URL = %q", cfg.URL)
	}
	if cfg.DelayBetweenRequests != 5*time.Second {
		t.Errorf("delay = %v", cfg.DelayBetweenRequests)
	}
	if cfg.MaxRetries != 7 {
		t.Errorf("retries = %d", cfg.MaxRetries)
	}
	if len(cfg.AllowedDomains) != 2 || cfg.AllowedDomains[1] != "otro.gov.co" {
		t.Errorf("domains = %v", cfg.AllowedDomains)
	}
	if cfg.CheckRobots {
		t.Error("CheckRobots should be false")
	}
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	t.Setenv("NORMASCRAPE_DELAY", "not-a-duration")
	cfg := Default()
	if err := ApplyEnv(&cfg); err == nil {
		t.Fatal("expected error for bad duration")
	}
}

func TestApplyFileOverlay(t *testing.T) {
	yml := `
url: https://adres.gov.co/desde-archivo
ethical:
  delay: 10s
  maxRetries: 0
scraping:
  userAgent: custom-agent/1.0
  checkRobots: false
output:
  db: /tmp/pruebas.db
pdf:
  download: true
  dir: /tmp/pdfs
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := ApplyFile(&cfg, path); err != nil {
		t.Fatalf("ApplyFile: %v", err)
	}
	if cfg.URL != "https://adres.gov.co/desde-archivo" {
		t.Errorf("URL = %q", cfg.URL)
	}
	if cfg.DelayBetweenRequests != 10*time.Second {
		t.Errorf("delay = %v", cfg.DelayBetweenRequests)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("retries = %d, want explicit 0 from file", cfg.MaxRetries)
	}
	if cfg.UserAgent != "custom-agent/1.0" {
		t.Errorf("user agent = %q", cfg.UserAgent)
	}
	if cfg.CheckRobots {
		t.Error("CheckRobots should be false")
	}
	if !cfg.DownloadPDFs || cfg.PDFDir != "/tmp/pdfs" {
		t.Errorf("pdf config = %v %q", cfg.DownloadPDFs, cfg.PDFDir)
	}
	// Untouched fields keep their defaults.
	if cfg.RequestTimeout != Default().RequestTimeout {
		t.Errorf("timeout changed unexpectedly: %v", cfg.RequestTimeout)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("url: https://adres.gov.co/archivo\nethical:\n  delay: 10s\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NORMASCRAPE_URL", "https://adres.gov.co/entorno")

	cfg := Default()
	if err := ApplyFile(&cfg, path); err != nil {
		t.Fatal(err)
	}
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.URL != "https://adres.gov.co/entorno" {
		t.Errorf("URL = %q, env should win over file", cfg.URL)
	}
	if cfg.DelayBetweenRequests != 10*time.Second {
		t.Errorf("delay = %v, file value should survive", cfg.DelayBetweenRequests)
	}
}

func TestApplyFileMissing(t *testing.T) {
	cfg := Default()
	if err := ApplyFile(&cfg, "/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadURLsFile(t *testing.T) {
	content := strings.Join([]string{
		"# lista de conceptos",
		"https://normograma.adres.gov.co/compilacion/a.html",
		"",
		"  https://normograma.adres.gov.co/compilacion/b.html  ",
		"# comentario final",
	}, "\n")
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	urls, err := readURLsFile(path)
	if err != nil {
		t.Fatalf("readURLsFile: %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("got %d urls, want 2", len(urls))
	}
	if urls[1] != "https://normograma.adres.gov.co/compilacion/b.html" {
		t.Errorf("urls[1] = %q", urls[1])
	}
}

func TestReadURLsFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte("# solo comentarios\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readURLsFile(path); err == nil {
		t.Fatal("expected error for file with no URLs")
	}
}

func TestCollectURLsPriority(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte("https://adres.gov.co/f\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := &App{cfg: Config{URL: "https://adres.gov.co/x", URLsFile: path, DefaultURL: "https://adres.gov.co/d"}}
	urls, err := a.collectURLs()
	if err != nil || len(urls) != 1 || urls[0] != "https://adres.gov.co/x" {
		t.Fatalf("explicit URL should win: %v %v", urls, err)
	}

	a.cfg.URL = ""
	urls, err = a.collectURLs()
	if err != nil || len(urls) != 1 || urls[0] != "https://adres.gov.co/f" {
		t.Fatalf("urls file should win over default: %v %v", urls, err)
	}

	a.cfg.URLsFile = ""
	urls, err = a.collectURLs()
	if err != nil || len(urls) != 1 || urls[0] != "https://adres.gov.co/d" {
		t.Fatalf("default should be last resort: %v %v", urls, err)
	}
}

func TestRunEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><body><main>
			<h1>CONCEPTO JURIDICO</h1>
			<p>La ADRES administra los recursos del sistema general de seguridad social en salud
			conforme a la resolución número 2876 de 2024 y el decreto 1429 de 2016.</p>
		</main></body></html>`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := Default()
	cfg.URL = srv.URL + "/concepto.html"
	cfg.DefaultURL = srv.URL + "/concepto.html"
	cfg.AllowedDomains = []string{"127.0.0.1"}
	cfg.DelayBetweenRequests = 0
	cfg.CheckRobots = false
	cfg.OutputDir = filepath.Join(dir, "out")
	cfg.DBPath = filepath.Join(dir, "docs.db")
	cfg.ReportPath = filepath.Join(dir, "reporte.pdf")

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	sum, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.URLs != 1 || sum.Succeeded != 1 || sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.Stored != 1 {
		t.Errorf("stored = %d, want 1", sum.Stored)
	}

	entries, err := os.ReadDir(cfg.OutputDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("output dir: %v entries, err %v", len(entries), err)
	}
	if !strings.HasSuffix(entries[0].Name(), ".json") {
		t.Errorf("artifact name = %q", entries[0].Name())
	}

	if _, err := os.Stat(cfg.ReportPath); err != nil {
		t.Errorf("report not written: %v", err)
	}
}

func TestRunRecordsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cfg := Default()
	cfg.URL = srv.URL + "/missing.html"
	cfg.DefaultURL = srv.URL + "/missing.html"
	cfg.AllowedDomains = []string{"127.0.0.1"}
	cfg.DelayBetweenRequests = 0
	cfg.MaxRetries = 0
	cfg.CheckRobots = false
	cfg.DBPath = ""
	cfg.OutputDir = ""

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	sum, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run should not fail on per-URL errors: %v", err)
	}
	if sum.Failed != 1 || sum.Succeeded != 0 {
		t.Fatalf("summary = %+v", sum)
	}
}
