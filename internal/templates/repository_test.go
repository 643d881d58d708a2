package templates

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) *GormRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Template{}))
	return NewGormRepository(db)
}

func newStoredTemplate(t *testing.T, repo *GormRepository, name string) *Template {
	t.Helper()
	template := &Template{
		ID:           uuid.New(),
		Name:         name,
		BodyMarkdown: "# {{fecha_inicio}}",
		Active:       true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), template))
	return template
}

func TestUpdatePersistsDeactivation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	template := newStoredTemplate(t, repo, "diario")

	template.Active = false
	template.Name = "diario-archivado"
	require.NoError(t, repo.Update(ctx, template))

	stored, err := repo.GetByID(ctx, template.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
	assert.Equal(t, "diario-archivado", stored.Name)
}

func TestUpdateUnknownTemplate(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.Update(context.Background(), &Template{ID: uuid.New(), Name: "x"})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetDefaultSwapsAtomically(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	first := newStoredTemplate(t, repo, "primero")
	second := newStoredTemplate(t, repo, "segundo")

	require.NoError(t, repo.SetDefault(ctx, first.ID))
	require.NoError(t, repo.SetDefault(ctx, second.ID))

	current, err := repo.GetDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)

	previous, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, previous.IsDefault)

	var defaults int64
	require.NoError(t, repo.db.Model(&Template{}).Where("is_default = ?", true).Count(&defaults).Error)
	assert.Equal(t, int64(1), defaults)
}

func TestSetDefaultUnknownTemplate(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.SetDefault(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetDefaultWithoutStoredDefault(t *testing.T) {
	repo := newTestRepo(t)
	newStoredTemplate(t, repo, "sin-default")

	_, err := repo.GetDefault(context.Background())

	assert.ErrorIs(t, err, ErrNotFound)
}
