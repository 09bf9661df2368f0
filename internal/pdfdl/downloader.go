package pdfdl

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/saluddigital/normascrape/internal/fetch"
	"github.com/saluddigital/normascrape/internal/store"
)

var pdfMagic = []byte("%PDF")

// Fetcher is the HTTP dependency shared with the scraping pipeline. Pages
// go through Fetch; PDF payloads through FetchBinary, which carries the
// longer per-attempt timeout.
type Fetcher interface {
	Fetch(ctx context.Context, url string) fetch.Result
	FetchBinary(ctx context.Context, url string) fetch.Result
}

// BinarySink receives downloaded payloads, typically *store.Store. Nil
// disables persistence; files are still written to disk.
type BinarySink interface {
	StoreBinary(data []byte, meta store.BinaryMeta) (string, error)
}

// FileInfo describes one downloaded PDF.
type FileInfo struct {
	Filename     string `json:"nombre_archivo"`
	Path         string `json:"ruta_local"`
	URL          string `json:"url_original"`
	Size         int    `json:"tamano_bytes"`
	DownloadedAt string `json:"fecha_descarga"`
	StoreID      string `json:"store_id,omitempty"`
}

// Session summarizes one download run over a single page.
type Session struct {
	SessionID      string     `json:"session_id"`
	PageURL        string     `json:"url_pagina"`
	PagesAnalyzed  int        `json:"paginas_analizadas"`
	PDFsFound      int        `json:"pdfs_encontrados"`
	PDFsDownloaded int        `json:"pdfs_descargados"`
	TotalBytes     int64      `json:"total_bytes"`
	StartedAt      string     `json:"inicio"`
	FinishedAt     string     `json:"fin"`
	Files          []FileInfo `json:"archivos"`
}

// Downloader fetches every PDF linked from a page, politely and in order.
type Downloader struct {
	Fetcher        Fetcher
	AllowedDomains []string
	// Delay is the ethical wait between consecutive downloads.
	Delay time.Duration
	Sink  BinarySink
	// Sleep is injectable for tests. Nil means time.Sleep.
	Sleep func(time.Duration)
	// Now is injectable for tests. Nil means time.Now.
	Now func() time.Time
}

func (d *Downloader) sleep(dur time.Duration) {
	if dur <= 0 {
		return
	}
	if d.Sleep != nil {
		d.Sleep(dur)
		return
	}
	time.Sleep(dur)
}

func (d *Downloader) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// DownloadAll fetches pageURL, discovers its PDF links, and downloads each
// into outDir. Individual download failures are logged and skipped; the
// session completes and reports what it got.
func (d *Downloader) DownloadAll(ctx context.Context, pageURL, outDir string) (Session, error) {
	sess := Session{
		SessionID: uuid.NewString(),
		PageURL:   pageURL,
		StartedAt: d.now().Format(time.RFC3339),
	}

	res := d.Fetcher.Fetch(ctx, pageURL)
	if !res.OK() {
		return sess, fmt.Errorf("no se pudo obtener la página %s: %w", pageURL, res.Err)
	}
	sess.PagesAnalyzed = 1

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return sess, fmt.Errorf("error analizando HTML de %s: %w", pageURL, err)
	}

	links := FindPDFLinks(doc, pageURL, d.AllowedDomains)
	sess.PDFsFound = len(links)
	if len(links) == 0 {
		log.Info().Str("url", pageURL).Msg("no pdf links found")
		sess.FinishedAt = d.now().Format(time.RFC3339)
		return sess, nil
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return sess, fmt.Errorf("crear directorio de descargas: %w", err)
	}

	log.Info().Str("url", pageURL).Int("pdfs", len(links)).Msg("downloading pdf links")
	for i, link := range links {
		if i > 0 {
			d.sleep(d.Delay)
		}
		info, err := d.downloadOne(ctx, link, outDir, sess.SessionID)
		if err != nil {
			log.Warn().Str("url", link.URL).Err(err).Msg("pdf download failed")
			continue
		}
		sess.Files = append(sess.Files, info)
		sess.PDFsDownloaded++
		sess.TotalBytes += int64(info.Size)
	}

	sess.FinishedAt = d.now().Format(time.RFC3339)
	return sess, nil
}

func (d *Downloader) downloadOne(ctx context.Context, link LinkInfo, outDir, sessionID string) (FileInfo, error) {
	res := d.Fetcher.FetchBinary(ctx, link.URL)
	if !res.OK() {
		return FileInfo{}, fmt.Errorf("descarga fallida (%s): %w", res.Status, res.Err)
	}
	if !bytes.HasPrefix(res.Body, pdfMagic) {
		return FileInfo{}, fmt.Errorf("el contenido no es un PDF válido")
	}

	name := link.Filename
	if name == "" {
		name = fmt.Sprintf("documento_%s.pdf", d.now().Format("20060102_150405"))
	}
	path := uniquePath(outDir, safeFilename(name))
	if err := os.WriteFile(path, res.Body, 0o644); err != nil {
		return FileInfo{}, fmt.Errorf("guardar PDF: %w", err)
	}

	info := FileInfo{
		Filename:     filepath.Base(path),
		Path:         path,
		URL:          link.URL,
		Size:         len(res.Body),
		DownloadedAt: d.now().Format(time.RFC3339),
	}

	if d.Sink != nil {
		id, err := d.Sink.StoreBinary(res.Body, store.BinaryMeta{
			Filename:    info.Filename,
			ContentType: "application/pdf",
			SourceURL:   link.URL,
			SessionID:   sessionID,
		})
		if err != nil {
			log.Warn().Str("file", info.Filename).Err(err).Msg("binary store failed")
		} else {
			info.StoreID = id
		}
	}

	log.Info().Str("file", info.Filename).Int("bytes", info.Size).Msg("pdf downloaded")
	return info, nil
}

// uniquePath appends a counter when name already exists in dir.
func uniquePath(dir, name string) string {
	p := filepath.Join(dir, name)
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return p
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		p = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return p
		}
	}
}
