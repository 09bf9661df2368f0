// Package report renders a PDF summary of a batch scrape session.
package report

import (
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/saluddigital/normascrape/internal/scraper"
)

// WriteSessionReport renders a one-page summary of records to outPath.
// Layout is intentionally simple: a header, aggregate counts, then one line
// per URL.
func WriteSessionReport(records []scraper.Record, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr("Resumen de extracción - normascrape"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, time.Now().Format(time.RFC3339), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	ok, failed := 0, 0
	byType := make(map[string]int)
	for _, rec := range records {
		if rec.OK() {
			ok++
			if rec.Analysis != nil {
				byType[rec.Analysis.Classification.DocumentType]++
			}
		} else {
			failed++
		}
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, "Totales", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, fmt.Sprintf("Documentos procesados: %d  (OK: %d, ERROR: %d)", len(records), ok, failed), "", 1, "L", false, 0, "")
	for docType, n := range byType {
		pdf.CellFormat(0, 5, fmt.Sprintf("  %s: %d", docType, n), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, "Detalle por URL", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, rec := range records {
		line := rec.URL
		if rec.OK() {
			docType := ""
			if rec.Analysis != nil {
				docType = rec.Analysis.Classification.DocumentType
			}
			line = fmt.Sprintf("%s - OK, %s, %d palabras, %d intentos",
				rec.URL, docType, rec.WordCount, rec.Attempts)
		} else {
			line = fmt.Sprintf("%s - ERROR (%s): %s", rec.URL, rec.ErrorType, rec.ErrorMessage)
		}
		pdf.MultiCell(0, 4.5, tr(line), "", "L", false)
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write session report: %w", err)
	}
	return nil
}
