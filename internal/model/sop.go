package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// SOPDocument represents one clinical standard operating procedure
// document. Content and embedding are always written together in a single
// transaction so the vector never describes stale text.
type SOPDocument struct {
	ID         string          `json:"id" gorm:"primaryKey;type:uuid"`
	Title      string          `json:"title" gorm:"size:255;not null"`
	Section    string          `json:"section" gorm:"size:64;not null;index:idx_section"`
	Department string          `json:"department" gorm:"size:128;index:idx_department"`
	Content    string          `json:"content" gorm:"type:text;not null"`
	IsActive   bool            `json:"is_active" gorm:"not null;default:true;index:idx_is_active"`
	Embedding  pgvector.Vector `json:"-" gorm:"type:vector(1536)"`
	CreatedAt  time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (SOPDocument) TableName() string {
	return "sop_documents"
}

// BeforeCreate assigns an ID when the caller did not set one.
func (d *SOPDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// SOPDocumentList contains a page of SOP documents.
type SOPDocumentList struct {
	TotalCount int64          `json:"totalCount"`
	Items      []*SOPDocument `json:"items"`
}

// VectorEmbedding represents a standalone embedded text fragment attached
// to an SOP document.
type VectorEmbedding struct {
	ID        string          `json:"id" gorm:"primaryKey;type:uuid"`
	Content   string          `json:"content" gorm:"type:text;not null"`
	Embedding pgvector.Vector `json:"-" gorm:"type:vector(1536)"`
	SOPID     string          `json:"sop_id" gorm:"type:uuid;not null;index:idx_sop_id"`
	CreatedAt time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (VectorEmbedding) TableName() string {
	return "vector_embeddings"
}

// BeforeCreate assigns an ID when the caller did not set one.
func (e *VectorEmbedding) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// SimilarSOP is one hit from a similarity search over active documents.
// Similarity is 1 - cosine distance, so higher means closer.
type SimilarSOP struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}
