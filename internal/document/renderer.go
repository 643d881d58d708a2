package document

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"civic-watch/incident-reports-backend/internal/blob"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// PDFArtifactName returns the deterministic artifact name for a reporting
// period. Rendering the same period twice overwrites the same object.
func PDFArtifactName(periodStart, periodEnd time.Time) string {
	return fmt.Sprintf("Reporte_%s_%s.pdf",
		periodStart.Format("2006-01-02"), periodEnd.Format("2006-01-02"))
}

// WorkbookArtifactName returns the deterministic workbook name for a period.
func WorkbookArtifactName(periodStart, periodEnd time.Time) string {
	return fmt.Sprintf("Reporte_%s_%s.xlsx",
		periodStart.Format("2006-01-02"), periodEnd.Format("2006-01-02"))
}

// Renderer converts rendered report markdown into persisted binary documents.
type Renderer struct {
	store  blob.Store
	logger *zap.Logger
}

// NewRenderer creates a new document renderer
func NewRenderer(store blob.Store, logger *zap.Logger) *Renderer {
	return &Renderer{store: store, logger: logger}
}

// RenderPDF converts markdown to a PDF document and persists it under the
// period's deterministic name. It returns the stored location.
func (r *Renderer) RenderPDF(ctx context.Context, markdown string, periodStart, periodEnd time.Time) (string, error) {
	data, err := renderPDFBytes(markdown, periodStart)
	if err != nil {
		return "", err
	}

	name := PDFArtifactName(periodStart, periodEnd)
	location, err := r.store.Put(ctx, name, data, contentTypePDF)
	if err != nil {
		return "", fmt.Errorf("failed to persist document: %w", err)
	}

	r.logger.Info("Report document rendered",
		zap.String("artifact", name),
		zap.Int("size_bytes", len(data)))

	return location, nil
}

// Fetch loads a stored artifact by name.
func (r *Renderer) Fetch(ctx context.Context, name string) ([]byte, error) {
	return r.store.Get(ctx, name)
}

// renderPDFBytes lays out the markdown-lite report body as a PDF. The
// creation date is pinned to the period start so re-rendering the same
// markdown yields byte-identical output.
func renderPDFBytes(markdown string, periodStart time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(periodStart)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimRight(line, " \t")
		switch {
		case line == "":
			pdf.Ln(4)
		case strings.HasPrefix(line, "# "):
			pdf.SetFont("Arial", "B", 16)
			pdf.CellFormat(0, 10, tr(strings.TrimPrefix(line, "# ")), "", 1, "C", false, 0, "")
		case strings.HasPrefix(line, "## "):
			pdf.SetFont("Arial", "B", 13)
			pdf.CellFormat(0, 8, tr(strings.TrimPrefix(line, "## ")), "", 1, "L", false, 0, "")
		case strings.HasPrefix(line, "|"):
			writeTableRow(pdf, tr, line)
		case strings.HasPrefix(line, "- "):
			pdf.SetFont("Arial", "", 10)
			pdf.CellFormat(0, 6, tr("  • "+strings.TrimPrefix(line, "- ")), "", 1, "L", false, 0, "")
		default:
			pdf.SetFont("Arial", "", 10)
			pdf.MultiCell(0, 6, tr(stripEmphasis(line)), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// writeTableRow renders one "| a | b |" markdown table row. Separator rows
// ("|---|---|") are skipped.
func writeTableRow(pdf *gofpdf.Fpdf, tr func(string) string, line string) {
	cells := splitTableRow(line)
	if len(cells) == 0 {
		return
	}

	separator := true
	for _, c := range cells {
		if strings.Trim(c, "-: ") != "" {
			separator = false
			break
		}
	}
	if separator {
		return
	}

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	width := (pageWidth - left - right) / float64(len(cells))

	pdf.SetFont("Arial", "", 10)
	for _, cell := range cells {
		pdf.CellFormat(width, 7, tr(stripEmphasis(cell)), "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func splitTableRow(line string) []string {
	trimmed := strings.Trim(line, "|")
	parts := strings.Split(trimmed, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	return cells
}

func stripEmphasis(line string) string {
	return strings.ReplaceAll(line, "**", "")
}
