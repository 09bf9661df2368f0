// Package store persists scrape records and binary payloads in SQLite.
// Document inserts are idempotent on a SHA-256 hash of the extracted text:
// storing the same content twice returns the original row id.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/saluddigital/normascrape/internal/scraper"
)

// ErrErrorRecord rejects persistence of failed scrapes: only OK records
// carry text worth storing.
var ErrErrorRecord = errors.New("store: record has status ERROR, nothing to persist")

// Store wraps the SQLite database. Not safe for concurrent use; the
// pipeline is strictly sequential.
type Store struct {
	db *sql.DB
}

// BinaryMeta accompanies a stored binary payload.
type BinaryMeta struct {
	Filename    string
	ContentType string
	SourceURL   string
	SessionID   string
}

// Open creates or opens the database at path and initializes the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content_hash TEXT UNIQUE NOT NULL,
		url_original TEXT NOT NULL,
		fecha_extraccion TEXT,
		tipo_documento TEXT,
		longitud_caracteres INTEGER,
		longitud_palabras INTEGER,
		record_json TEXT NOT NULL,
		stored_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS binaries (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		content_type TEXT,
		size_bytes INTEGER NOT NULL,
		sha256 TEXT NOT NULL,
		source_url TEXT,
		session_id TEXT,
		data BLOB NOT NULL,
		stored_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(content_hash);
	CREATE INDEX IF NOT EXISTS idx_documents_url ON documents(url_original);
	CREATE INDEX IF NOT EXISTS idx_binaries_session ON binaries(session_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ContentHash is the dedup key: SHA-256 of the extracted text, hex-encoded.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// StoreDocument persists an OK record and returns its row id. When a record
// with identical extracted text already exists, the existing id is returned
// and nothing is inserted.
func (s *Store) StoreDocument(rec scraper.Record) (int64, error) {
	if !rec.OK() {
		return 0, ErrErrorRecord
	}
	hash := ContentHash(rec.Text)

	var existing int64
	err := s.db.QueryRow("SELECT id FROM documents WHERE content_hash = ?", hash).Scan(&existing)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("query existing document: %w", err)
	}

	recordJSON, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("marshal record: %w", err)
	}
	docType := ""
	if rec.Analysis != nil {
		docType = rec.Analysis.Classification.DocumentType
	}

	res, err := s.db.Exec(`
		INSERT INTO documents
			(content_hash, url_original, fecha_extraccion, tipo_documento,
			 longitud_caracteres, longitud_palabras, record_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		hash, rec.URL, rec.ExtractedAt, docType, rec.CharCount, rec.WordCount, string(recordJSON))
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("retrieve inserted id: %w", err)
	}
	return id, nil
}

// DocumentByHash loads the stored record for a content hash, or
// sql.ErrNoRows when absent.
func (s *Store) DocumentByHash(hash string) (scraper.Record, error) {
	var recordJSON string
	err := s.db.QueryRow("SELECT record_json FROM documents WHERE content_hash = ?", hash).Scan(&recordJSON)
	if err != nil {
		return scraper.Record{}, err
	}
	var rec scraper.Record
	if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
		return scraper.Record{}, fmt.Errorf("unmarshal stored record: %w", err)
	}
	return rec, nil
}

// CountDocuments returns the number of stored documents.
func (s *Store) CountDocuments() (int64, error) {
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&n)
	return n, err
}

// StoreBinary saves a binary payload with its metadata and returns the
// generated id.
func (s *Store) StoreBinary(data []byte, meta BinaryMeta) (string, error) {
	if len(data) == 0 {
		return "", errors.New("store: empty binary payload")
	}
	id := uuid.NewString()
	sum := sha256.Sum256(data)

	_, err := s.db.Exec(`
		INSERT INTO binaries
			(id, filename, content_type, size_bytes, sha256, source_url, session_id, data, stored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, meta.Filename, meta.ContentType, len(data), hex.EncodeToString(sum[:]),
		meta.SourceURL, meta.SessionID, data, time.Now().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("insert binary: %w", err)
	}
	return id, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
