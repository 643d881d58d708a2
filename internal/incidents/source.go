package incidents

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Source provides read-only access to submitted incident records.
type Source interface {
	FetchIncidents(ctx context.Context, periodStart, periodEnd time.Time) ([]Record, error)
}

// GormSource implements Source backed by the shared incident database.
type GormSource struct {
	db *gorm.DB
}

// NewGormSource creates a new incident record source
func NewGormSource(db *gorm.DB) *GormSource {
	return &GormSource{db: db}
}

// FetchIncidents returns submitted records whose occurrence time falls inside
// the half-open range [periodStart, periodEnd).
func (s *GormSource) FetchIncidents(ctx context.Context, periodStart, periodEnd time.Time) ([]Record, error) {
	var records []Record
	err := s.db.WithContext(ctx).
		Where("status = ?", RecordStatusSubmitted).
		Where("occurred_at >= ? AND occurred_at < ?", periodStart, periodEnd).
		Order("occurred_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch incident records: %w", err)
	}
	return records, nil
}
