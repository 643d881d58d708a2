package templates

import (
	"time"

	"github.com/google/uuid"
)

// Template is an admin-managed report body with placeholder tokens.
type Template struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string     `json:"name"`
	Description  *string    `json:"description,omitempty"`
	BodyMarkdown string     `json:"body_markdown"`
	Active       bool       `json:"active"`
	IsDefault    bool       `json:"is_default"`
	CreatedBy    *uuid.UUID `json:"created_by,omitempty" gorm:"type:uuid"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName overrides the gorm table name
func (Template) TableName() string {
	return "report_templates"
}

// CreateTemplateRequest represents the request to create a template
type CreateTemplateRequest struct {
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	BodyMarkdown string  `json:"body_markdown"`
	Active       bool    `json:"active"`
	IsDefault    bool    `json:"is_default"`
}

// UpdateTemplateRequest represents the request to update a template
type UpdateTemplateRequest struct {
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	BodyMarkdown *string `json:"body_markdown,omitempty"`
	Active       *bool   `json:"active,omitempty"`
}

// DefaultBody is the built-in template used when no stored template is marked
// as default.
const DefaultBody = `# Reporte de Incidentes

**Periodo:** {{fecha_inicio}} a {{fecha_fin}}

**Total de reportes:** {{total_reportes}}

## Resumen

{{narrativa_ia}}

## Incidentes por tipo de delito

{{tabla_delitos}}

## Incidentes por zona

{{tabla_zonas}}

## Incidentes por edad

{{tabla_edades}}
`
