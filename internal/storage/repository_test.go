package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/annotation-engine/internal/config"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: ":memory:", MaxOpenConns: 1},
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRecord(name string) *TemplateRecord {
	return &TemplateRecord{
		Name:      name,
		Document:  "invoice.pdf",
		Template:  json.RawMessage(`{"document":"invoice.pdf","annotationBoxes":[]}`),
		SourcePDF: []byte("%PDF-1.7"),
	}
}

func TestTemplateRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewTemplateRepository(testDB(t))

	record := sampleRecord("invoice-v1")
	require.NoError(t, repo.Save(ctx, record))
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.CreatedAt.IsZero())

	got, err := repo.GetByName(ctx, "invoice-v1")
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, "invoice.pdf", got.Document)
	assert.JSONEq(t, string(record.Template), string(got.Template))
	assert.Equal(t, []byte("%PDF-1.7"), got.SourcePDF)
}

func TestTemplateRepository_GetByName_NotFound(t *testing.T) {
	repo := NewTemplateRepository(testDB(t))

	_, err := repo.GetByName(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTemplateRepository_Save_OverwritesByName(t *testing.T) {
	ctx := context.Background()
	repo := NewTemplateRepository(testDB(t))

	first := sampleRecord("invoice-v1")
	require.NoError(t, repo.Save(ctx, first))

	second := sampleRecord("invoice-v1")
	second.Template = json.RawMessage(`{"document":"invoice.pdf","annotationBoxes":[{"id":"custom-1"}]}`)
	require.NoError(t, repo.Save(ctx, second))

	assert.Equal(t, first.ID, second.ID, "overwriting keeps the original record ID")

	got, err := repo.GetByName(ctx, "invoice-v1")
	require.NoError(t, err)
	assert.JSONEq(t, string(second.Template), string(got.Template))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestTemplateRepository_List_NewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewTemplateRepository(testDB(t))

	require.NoError(t, repo.Save(ctx, sampleRecord("older")))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, repo.Save(ctx, sampleRecord("newer")))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Name)
	assert.Equal(t, "older", list[1].Name)
}

func TestTemplateRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewTemplateRepository(testDB(t))

	require.NoError(t, repo.Save(ctx, sampleRecord("invoice-v1")))
	require.NoError(t, repo.Delete(ctx, "invoice-v1"))

	_, err := repo.GetByName(ctx, "invoice-v1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "invoice-v1"), ErrNotFound)
}
