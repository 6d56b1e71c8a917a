package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/smartprep/mcq-engine/internal/core/domain"
)

func newProcessorForTest(repo *repoFake, chunks []domain.Chunk, decomposeErr error) (*Processor, *recordingIndex) {
	index := newRecordingIndex()
	indexer := NewIndexer(&decomposerFake{chunks: chunks, err: decomposeErr}, newEmbedderFake(), index, 2, nil)
	return NewProcessor(repo, indexer, nil, "test", nil), index
}

func TestProcessByIDHappyPath(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{ID: "doc-1", Format: domain.FormatPDF}}
	p, index := newProcessorForTest(repo, docChunks("doc-1", 6), nil)

	if err := p.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID error = %v", err)
	}

	if len(repo.statusCalls) != 2 {
		t.Fatalf("status calls = %+v, want processing then ready", repo.statusCalls)
	}
	if repo.statusCalls[0].status != domain.StatusProcessing || repo.statusCalls[1].status != domain.StatusReady {
		t.Fatalf("status order = %+v", repo.statusCalls)
	}
	if repo.savedCls.Language != domain.LanguageEnglish || repo.savedCls.Subject != domain.SubjectPhysics {
		t.Fatalf("saved classification = %+v", repo.savedCls)
	}
	// docChunks spreads 6 chunks over pages 1-3.
	if repo.savedPages != 3 {
		t.Fatalf("saved page count = %d, want 3", repo.savedPages)
	}
	if got := index.Size("doc-1"); got != 6 {
		t.Fatalf("indexed entries = %d, want 6", got)
	}
}

func TestProcessByIDMarksFailed(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{ID: "doc-1", Format: domain.FormatPDF}}
	extractionErr := domain.WrapError(domain.ErrDocumentExtraction, "extract", fmt.Errorf("corrupt file"))
	p, _ := newProcessorForTest(repo, nil, extractionErr)

	err := p.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrDocumentExtraction) {
		t.Fatalf("expected ErrDocumentExtraction, got %v", err)
	}

	last := repo.statusCalls[len(repo.statusCalls)-1]
	if last.status != domain.StatusFailed {
		t.Fatalf("final status = %s, want failed", last.status)
	}
	if last.errMsg == "" {
		t.Fatal("failure message not persisted")
	}
}

func TestProcessByIDMissingDocument(t *testing.T) {
	repo := &repoFake{}
	p, _ := newProcessorForTest(repo, nil, nil)

	err := p.ProcessByID(context.Background(), "ghost")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if len(repo.statusCalls) != 0 {
		t.Fatalf("status must not change for a missing document: %+v", repo.statusCalls)
	}
}
