package templates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderReplacesAllRecognizedPlaceholders(t *testing.T) {
	bindings := map[string]string{
		PlaceholderPeriodStart: "2024-07-01",
		PlaceholderPeriodEnd:   "2024-07-02",
		PlaceholderTotal:       "2",
		PlaceholderCrimeTable:  "| robo | 2 |",
		PlaceholderZoneTable:   "| centro | 2 |",
		PlaceholderAgeTable:    "| 18-25 | 2 |",
		PlaceholderNarrative:   "Resumen del dia.",
	}

	rendered := Render(DefaultBody, bindings)

	assert.NotContains(t, rendered, "{{")
	for _, value := range bindings {
		assert.Contains(t, rendered, value)
	}
}

func TestRenderEachPlaceholderReplacedExactlyOnce(t *testing.T) {
	body := "a {{fecha_inicio}} b {{fecha_inicio}} c"
	rendered := Render(body, map[string]string{PlaceholderPeriodStart: "X"})

	assert.Equal(t, "a X b X c", rendered)
	assert.Equal(t, 2, strings.Count(rendered, "X"))
}

func TestRenderKeepsUnboundPlaceholderVerbatim(t *testing.T) {
	body := "hola {{desconocido}} y {{fecha_fin}}"
	rendered := Render(body, map[string]string{PlaceholderPeriodEnd: "2024-07-02"})

	assert.Equal(t, "hola {{desconocido}} y 2024-07-02", rendered)
}

func TestRenderIsNotRecursive(t *testing.T) {
	// A bound value containing a placeholder token must not be expanded.
	bindings := map[string]string{
		PlaceholderNarrative: "texto con {{total_reportes}} adentro",
		PlaceholderTotal:     "99",
	}
	rendered := Render("{{narrativa_ia}}", bindings)

	assert.Equal(t, "texto con {{total_reportes}} adentro", rendered)
}

func TestRenderStrayOpenerDoesNotSwallowPlaceholder(t *testing.T) {
	body := "{{x {{fecha_inicio}} fin"
	rendered := Render(body, map[string]string{PlaceholderPeriodStart: "2024-07-01"})

	assert.Equal(t, "{{x 2024-07-01 fin", rendered)
}

func TestRenderAdjacentOpenersKeepStray(t *testing.T) {
	rendered := Render("{{{{fecha_inicio}}", map[string]string{PlaceholderPeriodStart: "X"})

	assert.Equal(t, "{{X", rendered)
}

func TestRenderUnterminatedTokenIsLeftAlone(t *testing.T) {
	body := "abierto {{fecha_inicio sin cierre"
	rendered := Render(body, map[string]string{PlaceholderPeriodStart: "X"})

	assert.Equal(t, body, rendered)
}

func TestRenderEmptyBindings(t *testing.T) {
	rendered := Render("{{fecha_inicio}}", nil)
	assert.Equal(t, "{{fecha_inicio}}", rendered)
}
