// Package storage provides the template repository for the annotation engine.
package storage

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TemplateRecord is a persisted annotation template: the exported document
// record plus the source document it was authored against.
type TemplateRecord struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Document  string          `json:"document" db:"document"`
	Template  json.RawMessage `json:"template" db:"template"`
	SourcePDF []byte          `json:"sourcePdf,omitempty" db:"source_pdf"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

// TemplateSummary is the listing view of a template, without blobs.
type TemplateSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Document  string    `json:"document"`
	UpdatedAt time.Time `json:"updatedAt"`
}
