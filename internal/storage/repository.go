package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrNotFound = errors.New("record not found")
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// TemplateRepository handles template CRUD operations. Saving under an
// existing name overwrites the previous record.
type TemplateRepository struct {
	db DB
}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository(db DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Save inserts or replaces a template by name.
func (r *TemplateRepository) Save(ctx context.Context, record *TemplateRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := time.Now()
	record.UpdatedAt = now

	existing, err := r.GetByName(ctx, record.Name)
	switch {
	case errors.Is(err, ErrNotFound):
		record.CreatedAt = now
		query := `
			INSERT INTO templates (id, name, document, template, source_pdf, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		_, err = r.db.ExecContext(ctx, query,
			record.ID, record.Name, record.Document, record.Template,
			record.SourcePDF, record.CreatedAt, record.UpdatedAt,
		)
		return err
	case err != nil:
		return err
	default:
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		query := `
			UPDATE templates
			SET document = $1, template = $2, source_pdf = $3, updated_at = $4
			WHERE id = $5
		`
		_, err = r.db.ExecContext(ctx, query,
			record.Document, record.Template, record.SourcePDF,
			record.UpdatedAt, record.ID,
		)
		return err
	}
}

// GetByName retrieves a template by name.
func (r *TemplateRepository) GetByName(ctx context.Context, name string) (*TemplateRecord, error) {
	query := `
		SELECT id, name, document, template, source_pdf, created_at, updated_at
		FROM templates WHERE name = $1
	`
	record := &TemplateRecord{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&record.ID, &record.Name, &record.Document, &record.Template,
		&record.SourcePDF, &record.CreatedAt, &record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return record, err
}

// List returns summaries of all templates, newest first.
func (r *TemplateRepository) List(ctx context.Context) ([]TemplateSummary, error) {
	query := `
		SELECT id, name, document, updated_at
		FROM templates ORDER BY updated_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []TemplateSummary
	for rows.Next() {
		var s TemplateSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Document, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a template by name.
func (r *TemplateRepository) Delete(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE name = $1`, name)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
