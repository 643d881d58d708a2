package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Event codes emitted by the reporting pipeline and configuration boundary.
const (
	CodeRunStarted       = "report_run_started"
	CodeRunCompleted     = "report_run_completed"
	CodeRunFailedPartial = "report_run_failed_partial"
	CodeRunFailed        = "report_run_failed"
	CodeSent             = "report_sent"
	CodeSendFailed       = "report_send_failed"
	CodeConfigUpdated    = "config_updated"
	CodeTemplateChanged  = "template_changed"
)

// SystemActor identifies events produced by scheduled runs rather than an
// administrator.
const SystemActor = "system"

// Event is a single audit record.
type Event struct {
	Code         string
	RelatedID    *uuid.UUID
	RelatedTable string
	Detail       string
	Actor        string
}

// Sink receives audit events. Implementations must be fire-and-forget: a
// failing sink never fails the operation that emitted the event.
type Sink interface {
	LogEvent(ctx context.Context, event Event)
}

// Entry is the persisted form of an audit event.
type Entry struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Code         string     `json:"code"`
	RelatedID    *uuid.UUID `json:"related_id,omitempty" gorm:"type:uuid"`
	RelatedTable string     `json:"related_table,omitempty"`
	Detail       string     `json:"detail,omitempty"`
	Actor        string     `json:"actor"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TableName overrides the gorm table name
func (Entry) TableName() string {
	return "audit_events"
}

// GormSink persists audit events to the database.
type GormSink struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormSink creates a new database-backed audit sink
func NewGormSink(db *gorm.DB, logger *zap.Logger) *GormSink {
	return &GormSink{db: db, logger: logger}
}

func (s *GormSink) LogEvent(ctx context.Context, event Event) {
	entry := Entry{
		ID:           uuid.New(),
		Code:         event.Code,
		RelatedID:    event.RelatedID,
		RelatedTable: event.RelatedTable,
		Detail:       event.Detail,
		Actor:        event.Actor,
		CreatedAt:    time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.logger.Warn("Failed to persist audit event",
			zap.String("code", event.Code),
			zap.Error(err))
	}
}

// ListByRelatedID returns persisted events for one entity, newest first.
func (s *GormSink) ListByRelatedID(ctx context.Context, relatedID uuid.UUID) ([]Entry, error) {
	var entries []Entry
	err := s.db.WithContext(ctx).
		Where("related_id = ?", relatedID).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// NopSink discards events. Used in tests and as a safe default.
type NopSink struct{}

func (NopSink) LogEvent(context.Context, Event) {}
