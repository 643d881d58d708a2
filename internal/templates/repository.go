package templates

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a template does not exist.
var ErrNotFound = errors.New("template not found")

// Repository defines the interface for template data access
type Repository interface {
	Create(ctx context.Context, template *Template) error
	GetByID(ctx context.Context, id uuid.UUID) (*Template, error)
	GetDefault(ctx context.Context) (*Template, error)
	List(ctx context.Context) ([]Template, error)
	Update(ctx context.Context, template *Template) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetDefault(ctx context.Context, id uuid.UUID) error
}

// GormRepository implements Repository using gorm
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new template repository
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, template *Template) error {
	if err := r.db.WithContext(ctx).Create(template).Error; err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

func (r *GormRepository) GetByID(ctx context.Context, id uuid.UUID) (*Template, error) {
	var template Template
	err := r.db.WithContext(ctx).First(&template, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return &template, nil
}

// GetDefault returns the template marked as default, or ErrNotFound when no
// stored template is marked.
func (r *GormRepository) GetDefault(ctx context.Context) (*Template, error) {
	var template Template
	err := r.db.WithContext(ctx).First(&template, "is_default = ? AND active = ?", true, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get default template: %w", err)
	}
	return &template, nil
}

func (r *GormRepository) List(ctx context.Context) ([]Template, error) {
	var result []Template
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return result, nil
}

// Update persists the mutable columns. Columns are named explicitly because
// gorm's struct-based Updates skips zero values, which would drop a
// deactivation (Active=false) on the floor.
func (r *GormRepository) Update(ctx context.Context, template *Template) error {
	result := r.db.WithContext(ctx).Model(&Template{}).
		Where("id = ?", template.ID).
		Updates(map[string]any{
			"name":          template.Name,
			"description":   template.Description,
			"body_markdown": template.BodyMarkdown,
			"active":        template.Active,
			"updated_at":    template.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update template: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Template{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete template: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetDefault marks the given template as default and clears the previous
// default in the same transaction, so at most one default exists at any time.
func (r *GormRepository) SetDefault(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var template Template
		if err := tx.First(&template, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load template: %w", err)
		}

		if err := tx.Model(&Template{}).
			Where("is_default = ? AND id <> ?", true, id).
			Update("is_default", false).Error; err != nil {
			return fmt.Errorf("failed to clear previous default: %w", err)
		}

		if err := tx.Model(&Template{}).
			Where("id = ?", id).
			Update("is_default", true).Error; err != nil {
			return fmt.Errorf("failed to set default: %w", err)
		}

		return nil
	})
}
