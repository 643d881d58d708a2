package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a report does not exist.
var ErrNotFound = errors.New("report not found")

// Repository persists generated reports and scheduler run markers.
type Repository interface {
	Create(ctx context.Context, report *GeneratedReport) error
	Update(ctx context.Context, report *GeneratedReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*GeneratedReport, error)
	List(ctx context.Context, filter ListFilter) ([]GeneratedReport, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	FindByPeriod(ctx context.Context, periodStart, periodEnd time.Time) (*GeneratedReport, error)
	GetRunMarker(ctx context.Context, runDate string) (*RunMarker, error)
	CreateRunMarker(ctx context.Context, marker *RunMarker) error
}

// GormRepository implements Repository on PostgreSQL.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new report repository
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, report *GeneratedReport) error {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *GormRepository) Update(ctx context.Context, report *GeneratedReport) error {
	if err := r.db.WithContext(ctx).Save(report).Error; err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	return nil
}

func (r *GormRepository) GetByID(ctx context.Context, id uuid.UUID) (*GeneratedReport, error) {
	var report GeneratedReport
	err := r.db.WithContext(ctx).First(&report, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

func (r *GormRepository) List(ctx context.Context, filter ListFilter) ([]GeneratedReport, error) {
	query := r.db.WithContext(ctx).Model(&GeneratedReport{})

	if filter.PeriodStart != nil {
		query = query.Where("period_start >= ?", *filter.PeriodStart)
	}
	if filter.PeriodEnd != nil {
		query = query.Where("period_end <= ?", *filter.PeriodEnd)
	}
	if filter.Sent != nil {
		query = query.Where("sent = ?", *filter.Sent)
	}

	if filter.Take > 0 {
		query = query.Limit(filter.Take)
	}
	if filter.Skip > 0 {
		query = query.Offset(filter.Skip)
	}

	var reports []GeneratedReport
	if err := query.Order("period_start DESC").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// Delete removes a report. It returns false when the id does not exist, which
// callers treat as a no-op rather than an error.
func (r *GormRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&GeneratedReport{}, "id = ?", id)
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete report: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *GormRepository) FindByPeriod(ctx context.Context, periodStart, periodEnd time.Time) (*GeneratedReport, error) {
	var report GeneratedReport
	err := r.db.WithContext(ctx).
		Where("period_start = ? AND period_end = ?", periodStart, periodEnd).
		Order("created_at DESC").
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find report by period: %w", err)
	}
	return &report, nil
}

func (r *GormRepository) GetRunMarker(ctx context.Context, runDate string) (*RunMarker, error) {
	var marker RunMarker
	err := r.db.WithContext(ctx).First(&marker, "run_date = ?", runDate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run marker: %w", err)
	}
	return &marker, nil
}

func (r *GormRepository) CreateRunMarker(ctx context.Context, marker *RunMarker) error {
	if marker.ID == uuid.Nil {
		marker.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(marker).Error; err != nil {
		return fmt.Errorf("failed to create run marker: %w", err)
	}
	return nil
}
