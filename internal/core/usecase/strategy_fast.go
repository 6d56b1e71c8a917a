package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/smartprep/mcq-engine/internal/core/domain"
	"github.com/smartprep/mcq-engine/internal/core/ports"
)

// FastStrategy trades fidelity for near-constant cost: it indexes the
// document into an ephemeral run-scoped collection, retrieves the chunks
// most relevant to a synthetic query, and issues a small bounded number of
// generation calls against that condensed context.
type FastStrategy struct {
	repo           ports.DocumentRepository
	indexer        *Indexer
	embedder       ports.Embedder
	index          ports.VectorIndex
	builder        ports.PromptBuilder
	generator      ports.GenerationService
	validator      *Validator
	defaults       domain.Classification
	topKMultiplier int
	maxCalls       int
	logger         *slog.Logger
}

func NewFastStrategy(
	repo ports.DocumentRepository,
	indexer *Indexer,
	embedder ports.Embedder,
	index ports.VectorIndex,
	builder ports.PromptBuilder,
	generator ports.GenerationService,
	validator *Validator,
	defaults domain.Classification,
	topKMultiplier int,
	maxCalls int,
	logger *slog.Logger,
) *FastStrategy {
	if topKMultiplier < 1 {
		topKMultiplier = 3
	}
	if maxCalls < 1 {
		maxCalls = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FastStrategy{
		repo:           repo,
		indexer:        indexer,
		embedder:       embedder,
		index:          index,
		builder:        builder,
		generator:      generator,
		validator:      validator,
		defaults:       defaults,
		topKMultiplier: topKMultiplier,
		maxCalls:       maxCalls,
		logger:         logger,
	}
}

func (s *FastStrategy) Name() string { return StrategyFast }

func (s *FastStrategy) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.RunResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	doc, err := s.repo.GetByID(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	pages, err := domain.ParsePages(req.Pages)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse page filter", err)
	}

	collectionID := "run_" + uuid.NewString()
	chunks, skippedChunks, err := s.indexer.IndexDocument(ctx, doc, pages, collectionID)
	if err != nil {
		return nil, err
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		if err := s.index.Delete(cleanupCtx, collectionID); err != nil {
			s.logger.Warn("ephemeral collection cleanup failed", "collection", collectionID, "error", err)
		}
	}()
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrGenerationExhausted, "fast generation",
			fmt.Errorf("no chunks in scope for document %s", req.DocumentID))
	}
	if skippedChunks > 0 {
		s.logger.Warn("chunks skipped during run indexing", "document_id", doc.ID, "skipped", skippedChunks)
	}

	cls := resolveClassification(req, chunks, s.defaults)

	queryVector, err := s.embedder.EmbedQuery(ctx, syntheticQuery(req, cls))
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed synthetic query", err)
	}

	topK := s.topKMultiplier * req.NumQuestions
	if topK > len(chunks) {
		topK = len(chunks)
	}
	hits, err := s.index.Query(ctx, collectionID, queryVector, topK, domain.SearchFilter{Pages: pages})
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, domain.WrapError(domain.ErrGenerationExhausted, "fast generation",
			fmt.Errorf("retrieval returned no context for document %s", req.DocumentID))
	}

	contextChunks := make([]domain.Chunk, 0, len(hits))
	for _, hit := range hits {
		contextChunks = append(contextChunks, hit.Chunk)
	}

	// Split the condensed context across at most maxCalls generation calls.
	calls := s.maxCalls
	if calls > len(contextChunks) {
		calls = len(contextChunks)
	}
	portions := groupChunks(contextChunks, (len(contextChunks)+calls-1)/calls)

	var candidates []domain.Question
	var rejected []domain.RejectedQuestion
	skipped := 0
	remaining := req.NumQuestions * 2
	for i, portion := range portions {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if remaining <= 0 {
			break
		}
		callsLeft := len(portions) - i
		perCall := (remaining + callsLeft - 1) / callsLeft

		portionReq := req
		portionReq.NumQuestions = perCall
		prompt := s.builder.Build(portionReq, cls, portion)

		questions, parseRejected, err := s.generator.GenerateQuestions(ctx, prompt)
		if err != nil {
			skipped++
			s.logger.Warn("generation call skipped", "call", i, "error", err)
			continue
		}
		candidates = append(candidates, questions...)
		rejected = append(rejected, parseRejected...)
		remaining -= len(questions)
	}

	if len(candidates) == 0 {
		return nil, domain.WrapError(domain.ErrGenerationExhausted, "fast generation",
			fmt.Errorf("zero usable candidates from %d calls (%d skipped)", len(portions), skipped))
	}

	accepted, validationRejected := s.validator.Validate(ctx, candidates, req.NumQuestions)
	rejected = append(rejected, validationRejected...)

	return &domain.RunResult{
		Questions: accepted,
		Summary: domain.RunSummary{
			Requested:    req.NumQuestions,
			Accepted:     len(accepted),
			Rejected:     rejected,
			RejectCounts: rejectCounts(rejected),
			SkippedUnits: skipped,
			Strategy:     StrategyFast,
		},
	}, nil
}

// syntheticQuery condenses the request into retrieval text the way a
// student would phrase what the test should cover.
func syntheticQuery(req domain.GenerationRequest, cls domain.Classification) string {
	parts := []string{"key concepts definitions and facts"}
	if cls.Subject != "" && cls.Subject != domain.SubjectGeneral {
		parts = append(parts, string(cls.Subject))
	}
	if req.TopicScope == domain.ScopeSpecific && req.Topic != "" {
		parts = append(parts, req.Topic)
	}
	parts = append(parts, req.Keywords...)
	return strings.Join(parts, " ")
}
