package scraper

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/saluddigital/normascrape/internal/analyze"
)

// Record status values.
const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Error kinds carried by ERROR records. Callers branch on the record status
// alone; the kind refines reporting, never control flow outside the pipeline.
const (
	ErrValidation = "validation_error"
	ErrNetwork    = "network_error"
	ErrHTTP       = "http_error"
	ErrParsing    = "parsing_error"
	ErrExtraction = "extraction_error"
	ErrProcessing = "processing_error"
)

// HTTPMetadata preserves the response attributes of a successful fetch.
type HTTPMetadata struct {
	StatusCode    int    `json:"status_code"`
	ContentType   string `json:"content_type"`
	Server        string `json:"server"`
	ContentLength int    `json:"content_length"`
}

// Record is the canonical, immutable result of processing one URL. A record
// has Status ERROR exactly when it carries no extracted text and no
// analysis. Field names follow the established JSON output contract.
type Record struct {
	URL           string            `json:"url_original"`
	Status        string            `json:"status"`
	ExtractedAt   string            `json:"fecha_extraccion,omitempty"`
	ErrorAt       string            `json:"fecha_error,omitempty"`
	TimestampUnix int64             `json:"timestamp_unix"`
	Text          string            `json:"texto_completo,omitempty"`
	CharCount     int               `json:"longitud_caracteres,omitempty"`
	WordCount     int               `json:"longitud_palabras,omitempty"`
	Attempts      int               `json:"intentos_realizados"`
	Analysis      *analyze.Analysis `json:"analisis_contenido,omitempty"`
	HTTPMeta      *HTTPMetadata     `json:"metadatos_http,omitempty"`
	ErrorType     string            `json:"error_type,omitempty"`
	ErrorMessage  string            `json:"error_message,omitempty"`
}

// OK reports whether the scrape succeeded.
func (r Record) OK() bool { return r.Status == StatusOK }

// SaveJSON writes the record as an indented JSON artifact.
func (r Record) SaveJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}
