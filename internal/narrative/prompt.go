package narrative

import (
	"fmt"
	"sort"
	"strings"
)

const systemPrompt = "Eres un analista de seguridad ciudadana. Redacta un resumen " +
	"breve y objetivo en español de los incidentes reportados en el periodo, " +
	"con base en las estadísticas entregadas. No inventes cifras, no incluyas " +
	"recomendaciones legales y no menciones datos personales."

// buildUserPrompt renders the statistics (and optional incident detail lines)
// as the user message sent to the provider.
func buildUserPrompt(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Periodo: %s a %s.\n", req.PeriodStart.Format("2006-01-02"), req.PeriodEnd.Format("2006-01-02"))
	fmt.Fprintf(&b, "Total de reportes: %d.\n", req.Statistics.TotalCount)

	if len(req.Statistics.ByCrimeType) > 0 {
		fmt.Fprintf(&b, "Por tipo de delito: %s.\n", formatCounts(req.Statistics.ByCrimeType))
	}
	if len(req.Statistics.ByZone) > 0 {
		fmt.Fprintf(&b, "Por zona: %s.\n", formatCounts(req.Statistics.ByZone))
	}
	if len(req.Statistics.ByAgeBucket) > 0 {
		fmt.Fprintf(&b, "Por rango de edad: %s.\n", formatCounts(req.Statistics.ByAgeBucket))
	}

	fmt.Fprintf(&b, "Poblaciones vulnerables: LGBTQ+=%d, migrantes=%d, situación de calle=%d, discapacidad=%d.\n",
		req.Statistics.LGBTQCount,
		req.Statistics.MigrantCount,
		req.Statistics.StreetSituationCount,
		req.Statistics.DisabilityCount)

	if req.Statistics.MostFrequentCrime != "" {
		fmt.Fprintf(&b, "Delito más frecuente: %s. Zona más activa: %s.\n",
			req.Statistics.MostFrequentCrime, req.Statistics.MostActiveZone)
	}

	if len(req.IncidentLines) > 0 {
		b.WriteString("Detalle de incidentes:\n")
		for _, line := range req.IncidentLines {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	return b.String()
}

// formatCounts renders a count map with deterministic key order.
func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, ", ")
}
