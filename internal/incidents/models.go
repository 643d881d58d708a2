package incidents

import (
	"time"

	"github.com/google/uuid"
)

// RecordStatus represents the lifecycle status of an incident record
type RecordStatus string

const (
	RecordStatusDraft     RecordStatus = "draft"
	RecordStatusSubmitted RecordStatus = "submitted"
)

// Record represents a single reported incident. The reporting pipeline
// consumes records read-only; the CRUD workflow that produces them lives in
// another service.
type Record struct {
	ID                uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	CrimeType         string       `json:"crime_type" gorm:"column:crime_type"`
	Zone              string       `json:"zone"`
	VictimAge         int          `json:"victim_age"`
	IsLGBTQ           bool         `json:"is_lgbtq" gorm:"column:is_lgbtq"`
	IsMigrant         bool         `json:"is_migrant"`
	InStreetSituation bool         `json:"in_street_situation"`
	HasDisability     bool         `json:"has_disability"`
	Status            RecordStatus `json:"status"`
	OccurredAt        time.Time    `json:"occurred_at"`
	CreatedAt         time.Time    `json:"created_at"`
}

// TableName overrides the gorm table name
func (Record) TableName() string {
	return "incident_records"
}
