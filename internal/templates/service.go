package templates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"civic-watch/incident-reports-backend/internal/audit"
)

// Service provides admin operations on report templates.
type Service struct {
	repo   Repository
	audit  audit.Sink
	logger *zap.Logger
}

// NewService creates a new template service
func NewService(repo Repository, auditSink audit.Sink, logger *zap.Logger) *Service {
	return &Service{repo: repo, audit: auditSink, logger: logger}
}

// Create creates a new template on behalf of actor.
func (s *Service) Create(ctx context.Context, actor uuid.UUID, req *CreateTemplateRequest) (*Template, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("template name is required")
	}
	if strings.TrimSpace(req.BodyMarkdown) == "" {
		return nil, fmt.Errorf("template body is required")
	}

	template := &Template{
		ID:           uuid.New(),
		Name:         req.Name,
		Description:  req.Description,
		BodyMarkdown: req.BodyMarkdown,
		Active:       req.Active,
		CreatedBy:    &actor,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.repo.Create(ctx, template); err != nil {
		return nil, err
	}

	if req.IsDefault {
		if err := s.repo.SetDefault(ctx, template.ID); err != nil {
			return nil, err
		}
		template.IsDefault = true
	}

	s.logger.Info("Template created",
		zap.String("template_id", template.ID.String()),
		zap.String("name", template.Name))
	s.audit.LogEvent(ctx, audit.Event{
		Code:         audit.CodeTemplateChanged,
		RelatedID:    &template.ID,
		RelatedTable: template.TableName(),
		Detail:       "created",
		Actor:        actor.String(),
	})

	return template, nil
}

// Update applies the non-nil fields of req to an existing template.
func (s *Service) Update(ctx context.Context, actor uuid.UUID, id uuid.UUID, req *UpdateTemplateRequest) (*Template, error) {
	template, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("template name is required")
		}
		template.Name = *req.Name
	}
	if req.Description != nil {
		template.Description = req.Description
	}
	if req.BodyMarkdown != nil {
		if strings.TrimSpace(*req.BodyMarkdown) == "" {
			return nil, fmt.Errorf("template body is required")
		}
		template.BodyMarkdown = *req.BodyMarkdown
	}
	if req.Active != nil {
		template.Active = *req.Active
	}
	template.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, template); err != nil {
		return nil, err
	}

	s.audit.LogEvent(ctx, audit.Event{
		Code:         audit.CodeTemplateChanged,
		RelatedID:    &template.ID,
		RelatedTable: template.TableName(),
		Detail:       "updated",
		Actor:        actor.String(),
	})

	return template, nil
}

// SetDefault atomically swaps the default template to id.
func (s *Service) SetDefault(ctx context.Context, actor uuid.UUID, id uuid.UUID) error {
	if err := s.repo.SetDefault(ctx, id); err != nil {
		return err
	}

	s.audit.LogEvent(ctx, audit.Event{
		Code:         audit.CodeTemplateChanged,
		RelatedID:    &id,
		RelatedTable: Template{}.TableName(),
		Detail:       "set_default",
		Actor:        actor.String(),
	})
	return nil
}

// Delete removes a template.
func (s *Service) Delete(ctx context.Context, actor uuid.UUID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.LogEvent(ctx, audit.Event{
		Code:         audit.CodeTemplateChanged,
		RelatedID:    &id,
		RelatedTable: Template{}.TableName(),
		Detail:       "deleted",
		Actor:        actor.String(),
	})
	return nil
}

// List returns all templates.
func (s *Service) List(ctx context.Context) ([]Template, error) {
	return s.repo.List(ctx)
}
