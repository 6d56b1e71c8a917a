package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/smartprep/mcq-engine/internal/core/domain"
	"github.com/smartprep/mcq-engine/internal/core/ports"
	"github.com/smartprep/mcq-engine/internal/observability/metrics"
)

// Processor runs the asynchronous half of ingestion: decompose the stored
// document, embed its chunks, index them into the document's collection,
// and advance the status lifecycle.
type Processor struct {
	repo    ports.DocumentRepository
	indexer *Indexer
	metrics *metrics.PipelineMetrics
	service string
	logger  *slog.Logger
}

func NewProcessor(
	repo ports.DocumentRepository,
	indexer *Indexer,
	m *metrics.PipelineMetrics,
	service string,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{repo: repo, indexer: indexer, metrics: m, service: service, logger: logger}
}

func (p *Processor) ProcessByID(ctx context.Context, documentID string) error {
	start := time.Now()
	if p.metrics != nil {
		p.metrics.ProcessStarted()
		defer p.metrics.ProcessFinished()
	}

	doc, err := p.repo.GetByID(ctx, documentID)
	if err != nil {
		p.observe("failed", start)
		return err
	}

	if err := p.repo.UpdateStatus(ctx, doc.ID, domain.StatusProcessing, ""); err != nil {
		p.observe("failed", start)
		return err
	}

	chunks, skipped, err := p.indexer.IndexDocument(ctx, doc, nil, doc.ID)
	if err != nil {
		p.observe("failed", start)
		if statusErr := p.repo.UpdateStatus(ctx, doc.ID, domain.StatusFailed, err.Error()); statusErr != nil {
			p.logger.Error("failed to persist failure status", "document_id", doc.ID, "error", statusErr)
		}
		return err
	}

	cls := domain.Classification{
		Language: majorityLanguage(chunks, domain.LanguageEnglish),
		Subject:  majoritySubject(chunks, domain.SubjectGeneral),
	}
	pageCount := 0
	for _, chunk := range chunks {
		if chunk.Page > pageCount {
			pageCount = chunk.Page
		}
	}
	if err := p.repo.SaveClassification(ctx, doc.ID, cls, pageCount); err != nil {
		p.observe("failed", start)
		return err
	}

	if err := p.repo.UpdateStatus(ctx, doc.ID, domain.StatusReady, ""); err != nil {
		p.observe("failed", start)
		return err
	}

	p.observe("ok", start)
	p.logger.Info("document processed",
		"document_id", doc.ID,
		"chunks", len(chunks),
		"skipped_chunks", skipped,
		"language", cls.Language,
		"subject", cls.Subject,
		"duration", time.Since(start))
	return nil
}

func (p *Processor) observe(status string, start time.Time) {
	if p.metrics != nil {
		p.metrics.ObserveProcess(p.service, status, time.Since(start))
	}
}
