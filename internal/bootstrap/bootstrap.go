package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smartprep/mcq-engine/internal/config"
	"github.com/smartprep/mcq-engine/internal/core/domain"
	"github.com/smartprep/mcq-engine/internal/core/ports"
	"github.com/smartprep/mcq-engine/internal/core/usecase"
	"github.com/smartprep/mcq-engine/internal/infrastructure/chunking"
	"github.com/smartprep/mcq-engine/internal/infrastructure/classify"
	"github.com/smartprep/mcq-engine/internal/infrastructure/embedding"
	"github.com/smartprep/mcq-engine/internal/infrastructure/extractor"
	docxextract "github.com/smartprep/mcq-engine/internal/infrastructure/extractor/docx"
	imageextract "github.com/smartprep/mcq-engine/internal/infrastructure/extractor/image"
	pdfextract "github.com/smartprep/mcq-engine/internal/infrastructure/extractor/pdf"
	xlsxextract "github.com/smartprep/mcq-engine/internal/infrastructure/extractor/xlsx"
	"github.com/smartprep/mcq-engine/internal/infrastructure/llm/gemini"
	"github.com/smartprep/mcq-engine/internal/infrastructure/ocr"
	"github.com/smartprep/mcq-engine/internal/infrastructure/queue/nats"
	"github.com/smartprep/mcq-engine/internal/infrastructure/repository/postgres"
	"github.com/smartprep/mcq-engine/internal/infrastructure/resilience"
	"github.com/smartprep/mcq-engine/internal/infrastructure/storage/localfs"
	"github.com/smartprep/mcq-engine/internal/infrastructure/vector/memory"
	"github.com/smartprep/mcq-engine/internal/infrastructure/vector/qdrant"
	"github.com/smartprep/mcq-engine/internal/observability/logging"
	"github.com/smartprep/mcq-engine/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.PipelineMetrics

	Queue ports.MessageQueue
	Repo  ports.DocumentRepository

	Ingestor  ports.DocumentIngestor
	Processor ports.DocumentProcessor
	Runner    *usecase.Runner
	Thorough  ports.QuestionGenerator
	Fast      ports.QuestionGenerator
	Chat      ports.ChatService

	closeFn func()
}

type Options struct {
	Service string
	// DisableQueue skips the NATS connection for one-shot tools that
	// process documents inline.
	DisableQueue bool
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	return NewWithOptions(ctx, cfg, Options{Service: service})
}

func NewWithOptions(ctx context.Context, cfg config.Config, options Options) (*App, error) {
	service := options.Service
	if service == "" {
		service = "mcq-engine"
	}
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	pipelineMetrics := metrics.NewPipelineMetrics(service)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure documents schema: %w", err)
	}
	questions := postgres.NewQuestionRepository(db)
	if err := questions.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure questions schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	resilienceCfg := resilience.DefaultConfig()
	resilienceCfg.RetryCeiling = cfg.RetryCeiling
	executor := resilience.NewExecutor(resilienceCfg)

	var queue ports.MessageQueue
	closeQueue := func() {}
	if options.DisableQueue {
		queue = inlineQueue{}
	} else {
		natsQueue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		queue = natsQueue
		closeQueue = natsQueue.Close
	}

	geminiClient := gemini.New(cfg.GeminiURL, cfg.GenerationModel, cfg.EmbeddingModel, gemini.Options{
		RequestsPerSecond: cfg.GenerationRPS,
		Burst:             cfg.GenerationBurst,
		Executor:          executor,
	})
	generator := gemini.NewGenerator(geminiClient)
	embedder := embedding.NewCachingEmbedder(gemini.NewEmbedder(geminiClient))
	embedder.Observe = func(result string) {
		pipelineMetrics.CountEmbedCache(service, result)
	}

	var index ports.VectorIndex
	if cfg.QdrantURL != "" {
		index = qdrant.New(cfg.QdrantURL)
	} else {
		index = memory.NewIndex()
	}

	profiles, err := config.LoadProfiles(cfg.ProfilesPath)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	classifier := classify.NewHeuristic(profiles, cfg.LanguageThreshold)

	ocrClient := ocr.New(cfg.OCRURL)
	splitter := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	decomposer := extractor.NewDecomposer(storage, classifier, splitter, map[domain.Format]extractor.PageExtractor{
		domain.FormatPDF:   pdfextract.New(ocrClient, cfg.OCRMinConfidence),
		domain.FormatDOCX:  docxextract.New(),
		domain.FormatXLSX:  xlsxextract.New(),
		domain.FormatImage: imageextract.New(ocrClient, cfg.OCRMinConfidence),
	}, cfg.MinChunkWords)

	defaults := domain.Classification{
		Language: domain.Language(cfg.DefaultLanguage),
		Subject:  domain.Subject(cfg.DefaultSubject),
	}

	indexer := usecase.NewIndexer(decomposer, embedder, index, cfg.ConcurrencyLimit, logger)
	builder := usecase.NewPromptBuilder(profiles)
	validator := usecase.NewValidator(embedder, cfg.DedupThreshold, logger)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: pipelineMetrics,
		Queue:   queue,
		Repo:    repo,

		Ingestor:  usecase.NewIngestor(repo, storage, queue, logger),
		Processor: usecase.NewProcessor(repo, indexer, pipelineMetrics, service, logger),
		Runner:    usecase.NewRunner(questions, pipelineMetrics, service, logger),
		Thorough: usecase.NewThoroughStrategy(
			repo, decomposer, builder, generator, validator, defaults, cfg.ConcurrencyLimit, logger),
		Fast: usecase.NewFastStrategy(
			repo, indexer, embedder, index, builder, generator, validator, defaults,
			cfg.FastTopKMultiplier, cfg.FastMaxCalls, logger),
		Chat: usecase.NewChat(embedder, index, generator, cfg.RetrievalFloor, logger),

		closeFn: func() {
			closeQueue()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// inlineQueue stands in when the queue is disabled: publishing is a no-op
// because the caller processes documents inline.
type inlineQueue struct{}

func (inlineQueue) PublishDocumentIngested(context.Context, string) error { return nil }

func (inlineQueue) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return fmt.Errorf("message queue is disabled")
}
