package pipeline

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"civic-watch/incident-reports-backend/internal/stats"
)

// GeneratedReport is the pipeline's central artifact. One row exists per run
// that made it past aggregation; later stage failures leave the row in place
// with LastError set.
type GeneratedReport struct {
	ID                uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	PeriodStart       time.Time      `json:"period_start"`
	PeriodEnd         time.Time      `json:"period_end"`
	NarrativeMarkdown string         `json:"narrative_markdown"`
	DocumentPath      *string        `json:"document_path,omitempty"`
	WorkbookPath      *string        `json:"workbook_path,omitempty"`
	Statistics        datatypes.JSON `json:"statistics"`
	Sent              bool           `json:"sent"`
	SentAt            *time.Time     `json:"sent_at,omitempty"`
	LastError         *string        `json:"last_error,omitempty"`
	TemplateID        *uuid.UUID     `json:"template_id,omitempty" gorm:"type:uuid"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// TableName overrides the gorm table name
func (GeneratedReport) TableName() string {
	return "generated_reports"
}

// SetStatistics serializes the aggregation result onto the report. Statistics
// are written exactly once, at creation.
func (r *GeneratedReport) SetStatistics(st stats.ReportStatistics) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	r.Statistics = datatypes.JSON(data)
	return nil
}

// GetStatistics deserializes the stored aggregation result.
func (r *GeneratedReport) GetStatistics() (stats.ReportStatistics, error) {
	var st stats.ReportStatistics
	err := json.Unmarshal(r.Statistics, &st)
	return st, err
}

// RunMarker records that the scheduler ran for one calendar day. Persisted so
// a process restart within the same day cannot trigger a duplicate run.
type RunMarker struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	RunDate   string     `json:"run_date" gorm:"uniqueIndex"` // "2006-01-02"
	ReportID  *uuid.UUID `json:"report_id,omitempty" gorm:"type:uuid"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName overrides the gorm table name
func (RunMarker) TableName() string {
	return "report_run_markers"
}

// ListFilter narrows and pages report listings.
type ListFilter struct {
	Skip        int
	Take        int
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	Sent        *bool
}
