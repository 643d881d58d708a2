package document

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"civic-watch/incident-reports-backend/internal/stats"
)

// RenderWorkbook writes the statistics as an Excel workbook and persists it
// under the period's deterministic name. The workbook is a companion artifact
// to the PDF; failure to produce it degrades the run but never aborts it.
func (r *Renderer) RenderWorkbook(ctx context.Context, st stats.ReportStatistics, periodStart, periodEnd time.Time) (string, error) {
	data, err := workbookBytes(st, periodStart, periodEnd)
	if err != nil {
		return "", err
	}

	name := WorkbookArtifactName(periodStart, periodEnd)
	location, err := r.store.Put(ctx, name, data, contentTypeXLSX)
	if err != nil {
		return "", fmt.Errorf("failed to persist workbook: %w", err)
	}

	r.logger.Info("Statistics workbook rendered",
		zap.String("artifact", name),
		zap.Int("size_bytes", len(data)))

	return location, nil
}

func workbookBytes(st stats.ReportStatistics, periodStart, periodEnd time.Time) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	const summarySheet = "Resumen"
	file.SetSheetName("Sheet1", summarySheet)

	summary := [][]any{
		{"Periodo inicio", periodStart.Format("2006-01-02")},
		{"Periodo fin", periodEnd.Format("2006-01-02")},
		{"Total de reportes", st.TotalCount},
		{"Delito más frecuente", st.MostFrequentCrime},
		{"Zona más activa", st.MostActiveZone},
		{"Víctimas LGBTQ+", st.LGBTQCount},
		{"Víctimas migrantes", st.MigrantCount},
		{"En situación de calle", st.StreetSituationCount},
		{"Con discapacidad", st.DisabilityCount},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := file.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	sheets := []struct {
		name   string
		header string
		counts map[string]int
	}{
		{"Delitos", "Tipo de delito", st.ByCrimeType},
		{"Zonas", "Zona", st.ByZone},
		{"Edades", "Rango de edad", st.ByAgeBucket},
	}
	for _, sheet := range sheets {
		if _, err := file.NewSheet(sheet.name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", sheet.name, err)
		}
		if err := writeCountSheet(file, sheet.name, sheet.header, sheet.counts); err != nil {
			return nil, err
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to generate workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeCountSheet(file *excelize.File, sheet, header string, counts map[string]int) error {
	headerRow := []any{header, "Reportes"}
	if err := file.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header for %s: %w", sheet, err)
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, key := range keys {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{key, counts[key]}
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", sheet, err)
		}
	}
	return nil
}
