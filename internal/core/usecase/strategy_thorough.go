package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/smartprep/mcq-engine/internal/core/domain"
	"github.com/smartprep/mcq-engine/internal/core/ports"
)

const thoroughGroupSize = 3

// ThoroughStrategy scans every in-scope chunk of the document in order,
// issuing one generation call per chunk group. Cost grows with document
// size; fidelity is highest because nothing is condensed away.
type ThoroughStrategy struct {
	repo        ports.DocumentRepository
	decomposer  ports.Decomposer
	builder     ports.PromptBuilder
	generator   ports.GenerationService
	validator   *Validator
	defaults    domain.Classification
	concurrency int
	logger      *slog.Logger
}

func NewThoroughStrategy(
	repo ports.DocumentRepository,
	decomposer ports.Decomposer,
	builder ports.PromptBuilder,
	generator ports.GenerationService,
	validator *Validator,
	defaults domain.Classification,
	concurrency int,
	logger *slog.Logger,
) *ThoroughStrategy {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ThoroughStrategy{
		repo:        repo,
		decomposer:  decomposer,
		builder:     builder,
		generator:   generator,
		validator:   validator,
		defaults:    defaults,
		concurrency: concurrency,
		logger:      logger,
	}
}

func (s *ThoroughStrategy) Name() string { return StrategyThorough }

func (s *ThoroughStrategy) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.RunResult, error) {
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

	var chunks []domain.Chunk
	err = s.decomposer.Decompose(ctx, doc, pages, func(chunk domain.Chunk) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		return nil, err
	}
	chunks = filterByKeywords(chunks, req.Keywords)
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrGenerationExhausted, "thorough generation",
			fmt.Errorf("no chunks in scope for document %s", req.DocumentID))
	}

	cls := resolveClassification(req, chunks, s.defaults)
	groups := groupChunks(chunks, thoroughGroupSize)

	// Ask for enough raw candidates that validation losses still leave the
	// requested count.
	targetCandidates := req.NumQuestions * 2
	perGroup := (targetCandidates + len(groups) - 1) / len(groups)
	if perGroup < 1 {
		perGroup = 1
	}

	type unitResult struct {
		questions []domain.Question
		rejected  []domain.RejectedQuestion
		err       error
		launched  bool
	}
	results := make([]unitResult, len(groups))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		produced int
	)
	sem := make(chan struct{}, s.concurrency)

	for i, group := range groups {
		if ctx.Err() != nil {
			break
		}
		mu.Lock()
		enough := produced >= targetCandidates
		mu.Unlock()
		if enough {
			break
		}

		groupReq := req
		groupReq.NumQuestions = perGroup
		prompt := s.builder.Build(groupReq, cls, group)

		results[i].launched = true
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, prompt domain.GenerationPrompt) {
			defer wg.Done()
			defer func() { <-sem }()

			questions, rejected, err := s.generator.GenerateQuestions(ctx, prompt)

			mu.Lock()
			defer mu.Unlock()
			results[i] = unitResult{questions: questions, rejected: rejected, err: err, launched: true}
			produced += len(questions)
		}(i, prompt)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Re-sequence by group index so accepted order matches document order,
	// not completion order.
	var candidates []domain.Question
	var rejected []domain.RejectedQuestion
	skipped := 0
	for i, result := range results {
		if !result.launched {
			continue
		}
		if result.err != nil {
			skipped++
			s.logger.Warn("generation unit skipped", "group", i, "error", result.err)
			continue
		}
		candidates = append(candidates, result.questions...)
		rejected = append(rejected, result.rejected...)
	}

	if len(candidates) == 0 {
		return nil, domain.WrapError(domain.ErrGenerationExhausted, "thorough generation",
			fmt.Errorf("zero usable candidates from %d units (%d skipped)", len(groups), skipped))
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
			Strategy:     StrategyThorough,
		},
	}, nil
}

func validateRequest(req domain.GenerationRequest) error {
	if req.DocumentID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "generation request", fmt.Errorf("document id is required"))
	}
	if req.NumQuestions < 1 {
		return domain.WrapError(domain.ErrInvalidInput, "generation request", fmt.Errorf("num questions must be positive, got %d", req.NumQuestions))
	}
	return nil
}

func groupChunks(chunks []domain.Chunk, size int) [][]domain.Chunk {
	if size < 1 {
		size = 1
	}
	var groups [][]domain.Chunk
	for start := 0; start < len(chunks); start += size {
		end := start + size
		if end > len(chunks) {
			end = len(chunks)
		}
		groups = append(groups, chunks[start:end])
	}
	return groups
}
