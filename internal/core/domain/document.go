package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Format is the closed set of document types the decomposer dispatches on.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatDOCX  Format = "docx"
	FormatXLSX  Format = "xlsx"
	FormatImage Format = "image"
)

type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	Format      Format         `json:"format"`
	Fingerprint string         `json:"fingerprint"`
	StoragePath string         `json:"storage_path"`
	PageCount   int            `json:"page_count,omitempty"`
	Language    Language       `json:"language,omitempty"`
	Subject     Subject        `json:"subject,omitempty"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Fingerprint derives the stable content identity of a document.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Chunk is the atomic retrieval unit: a position-tagged slice of extracted
// text. Chunks are created once during decomposition and never mutated.
type Chunk struct {
	DocumentID string   `json:"document_id"`
	Seq        int      `json:"seq"`
	Page       int      `json:"page"`
	Text       string   `json:"text"`
	Language   Language `json:"language,omitempty"`
	Subject    Subject  `json:"subject,omitempty"`
}

// ChunkID is the idempotency key for vector index upserts.
func (c Chunk) ChunkID() string {
	return fmt.Sprintf("%s:%04d", c.DocumentID, c.Seq)
}
