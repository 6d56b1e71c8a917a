package ports

import (
	"context"
	"io"

	"github.com/smartprep/mcq-engine/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename string, format domain.Format, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document
// decomposition and indexing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// QuestionGenerator produces question candidates from one prompt scope.
// Fast and thorough strategies implement the same contract; the caller
// selects the strategy.
type QuestionGenerator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (*domain.RunResult, error)
	Name() string
}

// ChatService answers free-form queries against indexed documents.
type ChatService interface {
	Answer(ctx context.Context, query, collectionID string, history []domain.ChatTurn) (*domain.ChatResponse, error)
}
