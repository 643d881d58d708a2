package document

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"civic-watch/incident-reports-backend/internal/blob"
	"civic-watch/incident-reports-backend/internal/stats"
)

var (
	periodStart = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	store, err := blob.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return NewRenderer(store, zap.NewNop())
}

func TestPDFArtifactNameIsDeterministic(t *testing.T) {
	name := PDFArtifactName(periodStart, periodEnd)
	assert.Equal(t, "Reporte_2024-07-01_2024-07-02.pdf", name)
	assert.Equal(t, name, PDFArtifactName(periodStart, periodEnd))
}

func TestRenderPDFPersistsArtifact(t *testing.T) {
	renderer := newTestRenderer(t)
	markdown := "# Reporte de Incidentes\n\n**Total:** 2\n\n| robo | 2 |\n\n- detalle uno\n\nTexto libre con acentos: más allá.\n"

	location, err := renderer.RenderPDF(context.Background(), markdown, periodStart, periodEnd)

	require.NoError(t, err)
	assert.Equal(t, "Reporte_2024-07-01_2024-07-02.pdf", filepath.Base(location))

	data, err := renderer.Fetch(context.Background(), PDFArtifactName(periodStart, periodEnd))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestRenderPDFIsIdempotent(t *testing.T) {
	renderer := newTestRenderer(t)
	markdown := "# Reporte\n\ncontenido estable\n"
	ctx := context.Background()

	first, err := renderer.RenderPDF(ctx, markdown, periodStart, periodEnd)
	require.NoError(t, err)
	firstBytes, err := renderer.Fetch(ctx, PDFArtifactName(periodStart, periodEnd))
	require.NoError(t, err)

	second, err := renderer.RenderPDF(ctx, markdown, periodStart, periodEnd)
	require.NoError(t, err)
	secondBytes, err := renderer.Fetch(ctx, PDFArtifactName(periodStart, periodEnd))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstBytes, secondBytes)
}

func TestRenderWorkbook(t *testing.T) {
	renderer := newTestRenderer(t)
	st := stats.ReportStatistics{
		TotalCount:        3,
		ByCrimeType:       map[string]int{"robo": 2, "hurto": 1},
		ByZone:            map[string]int{"centro": 3},
		ByAgeBucket:       map[string]int{"18-25": 3},
		MostFrequentCrime: "robo",
		MostActiveZone:    "centro",
	}

	location, err := renderer.RenderWorkbook(context.Background(), st, periodStart, periodEnd)

	require.NoError(t, err)
	assert.Equal(t, "Reporte_2024-07-01_2024-07-02.xlsx", filepath.Base(location))

	data, err := renderer.Fetch(context.Background(), WorkbookArtifactName(periodStart, periodEnd))
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	// xlsx files are zip archives
	assert.Equal(t, "PK", string(data[:2]))
}
