package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smartprep/mcq-engine/internal/core/domain"
	"github.com/smartprep/mcq-engine/internal/core/ports"
)

// Ingestor handles the synchronous half of ingestion: fingerprint the
// content, store the bytes, record metadata, and announce the document to
// the processing workers.
type Ingestor struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
	logger  *slog.Logger
}

func NewIngestor(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	logger *slog.Logger,
) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{repo: repo, storage: storage, queue: queue, logger: logger}
}

func (i *Ingestor) Upload(ctx context.Context, filename string, format domain.Format, body io.Reader) (*domain.Document, error) {
	switch format {
	case domain.FormatPDF, domain.FormatDOCX, domain.FormatXLSX, domain.FormatImage:
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", fmt.Errorf("unsupported format %q", format))
	}

	content, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}
	if len(content) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", fmt.Errorf("empty document %q", filename))
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:          uuid.NewString(),
		Filename:    filename,
		Format:      format,
		Fingerprint: domain.Fingerprint(content),
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	doc.StoragePath = storageKey(doc.ID, filename)

	if err := i.storage.Save(ctx, doc.StoragePath, bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}
	if err := i.repo.Create(ctx, doc); err != nil {
		return nil, err
	}
	if err := i.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
		return nil, err
	}

	i.logger.Info("document ingested",
		"document_id", doc.ID, "filename", filename, "format", format, "bytes", len(content))
	return doc, nil
}

// storageKey keeps the original extension but namespaces by document id so
// colliding filenames never overwrite each other.
func storageKey(id, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return id + ext
}
