package ports

import (
	"context"
	"io"

	"github.com/smartprep/mcq-engine/internal/core/domain"
)

// DocumentRepository persists document metadata and status lifecycle.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveClassification(ctx context.Context, id string, cls domain.Classification, pageCount int) error
}

// ObjectStorage stores source document bytes.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes document ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// Decomposer extracts, normalizes, and chunks a document lazily. Emit is
// called once per chunk in document order; returning an error from emit
// stops decomposition.
type Decomposer interface {
	Decompose(ctx context.Context, doc *domain.Document, pages *domain.PageSet, emit func(domain.Chunk) error) error
}

// OCREngine recognizes text in an image or a rasterized document page,
// returning a confidence indicator alongside the text.
type OCREngine interface {
	Recognize(ctx context.Context, content []byte, page int) (text string, confidence float64, err error)
}

// Embedder converts text into fixed-dimensionality vectors. Embed returns
// one vector per input; per-item failures surface as
// *domain.PartialBatchError with valid sibling vectors retained. ModelID
// identifies the embedding model so stale vectors can be detected.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	ModelID() string
}

// VectorIndex persists chunk vectors per collection and answers
// nearest-neighbor queries. Upsert is idempotent by chunk id. Query results
// are strictly isolated to the requested collection, ordered by descending
// similarity with ties broken by chunk sequence. Delete on a missing
// collection is a no-op.
type VectorIndex interface {
	Upsert(ctx context.Context, collectionID string, entries []domain.IndexEntry) error
	Query(ctx context.Context, collectionID string, queryVector []float32, topK int, filter domain.SearchFilter) ([]domain.ScoredChunk, error)
	Delete(ctx context.Context, collectionID string) error
}

// ChunkClassifier detects language and subject of chunk text. Advisory
// only: implementations return defaults instead of failing.
type ChunkClassifier interface {
	Classify(text string) domain.Classification
}

// PromptBuilder assembles a generation prompt from the request and the
// classified context chunks.
type PromptBuilder interface {
	Build(req domain.GenerationRequest, cls domain.Classification, chunks []domain.Chunk) domain.GenerationPrompt
}

// GenerationService is the black-box LLM contract. GenerateQuestions
// returns raw candidate blocks parsed defensively by the caller side;
// unparseable blocks become validation failures, not fatal errors.
type GenerationService interface {
	GenerateQuestions(ctx context.Context, prompt domain.GenerationPrompt) ([]domain.Question, []domain.RejectedQuestion, error)
	GenerateText(ctx context.Context, system, prompt string) (string, error)
}

// QuestionSink receives the final accepted question batch plus provenance.
// The engine does not manage storage schema beyond this handoff.
type QuestionSink interface {
	StoreQuestions(ctx context.Context, documentID string, result *domain.RunResult) error
}
