package templates

import "strings"

// Placeholder tokens recognized by the rendering pipeline.
const (
	PlaceholderPeriodStart = "{{fecha_inicio}}"
	PlaceholderPeriodEnd   = "{{fecha_fin}}"
	PlaceholderTotal       = "{{total_reportes}}"
	PlaceholderCrimeTable  = "{{tabla_delitos}}"
	PlaceholderZoneTable   = "{{tabla_zonas}}"
	PlaceholderAgeTable    = "{{tabla_edades}}"
	PlaceholderNarrative   = "{{narrativa_ia}}"
)

// Render substitutes placeholder tokens in body with their bound values.
//
// Substitution is single-pass and non-recursive: bound values are written to
// the output without being re-scanned, so a value containing "{{...}}" cannot
// trigger further expansion. A placeholder with no matching binding is kept
// verbatim so misconfigured templates stay visible in the output. When a
// candidate token does not bind, scanning resumes right after its opening
// braces, so a stray "{{" cannot swallow a valid placeholder further on.
func Render(body string, bindings map[string]string) string {
	var out strings.Builder
	out.Grow(len(body))

	rest := body
	for {
		open := strings.Index(rest, "{{")
		if open == -1 {
			out.WriteString(rest)
			return out.String()
		}

		close := strings.Index(rest[open:], "}}")
		if close == -1 {
			out.WriteString(rest)
			return out.String()
		}
		close += open + 2

		token := rest[open:close]
		out.WriteString(rest[:open])

		if value, ok := bindings[token]; ok {
			out.WriteString(value)
			rest = rest[close:]
		} else {
			out.WriteString("{{")
			rest = rest[open+2:]
		}
	}
}
