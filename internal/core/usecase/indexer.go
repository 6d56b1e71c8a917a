package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/smartprep/mcq-engine/internal/core/domain"
	"github.com/smartprep/mcq-engine/internal/core/ports"
)

const embedBatchSize = 16

// Indexer runs the decompose, embed, upsert leg of the pipeline into a
// target collection. Embedding batches are issued concurrently up to the
// configured limit and results are re-sequenced by chunk index before the
// index write.
type Indexer struct {
	decomposer  ports.Decomposer
	embedder    ports.Embedder
	index       ports.VectorIndex
	concurrency int
	logger      *slog.Logger
}

func NewIndexer(
	decomposer ports.Decomposer,
	embedder ports.Embedder,
	index ports.VectorIndex,
	concurrency int,
	logger *slog.Logger,
) *Indexer {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		decomposer:  decomposer,
		embedder:    embedder,
		index:       index,
		concurrency: concurrency,
		logger:      logger,
	}
}

// IndexDocument returns the indexed chunks in document order plus the count
// of chunks skipped over persistent embedding failures. A whole-batch
// failure aborts; per-item failures only drop the failing chunks.
func (ix *Indexer) IndexDocument(
	ctx context.Context,
	doc *domain.Document,
	pages *domain.PageSet,
	collectionID string,
) ([]domain.Chunk, int, error) {
	var chunks []domain.Chunk
	err := ix.decomposer.Decompose(ctx, doc, pages, func(chunk domain.Chunk) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	if len(chunks) == 0 {
		return nil, 0, nil
	}

	vectors, skipped, err := ix.embedAll(ctx, chunks)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]domain.IndexEntry, 0, len(chunks))
	indexed := make([]domain.Chunk, 0, len(chunks))
	for i, chunk := range chunks {
		if vectors[i] == nil {
			continue
		}
		entries = append(entries, domain.IndexEntry{
			ChunkID:    chunk.ChunkID(),
			Vector:     vectors[i],
			Chunk:      chunk,
			EmbedModel: ix.embedder.ModelID(),
		})
		indexed = append(indexed, chunk)
	}
	if len(entries) == 0 {
		return nil, skipped, domain.WrapError(domain.ErrEmbedding, "index document", fmt.Errorf("all %d chunks failed to embed", len(chunks)))
	}

	if err := ix.index.Upsert(ctx, collectionID, entries); err != nil {
		return nil, 0, err
	}
	return indexed, skipped, nil
}

// embedAll embeds chunk texts in concurrent batches. The returned slice is
// positionally aligned with chunks; a nil vector marks a skipped chunk.
func (ix *Indexer) embedAll(ctx context.Context, chunks []domain.Chunk) ([][]float32, int, error) {
	vectors := make([][]float32, len(chunks))

	type batch struct {
		start int
		texts []string
	}
	var batches []batch
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, chunk := range chunks[start:end] {
			texts = append(texts, chunk.Text)
		}
		batches = append(batches, batch{start: start, texts: texts})
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		skipped  int
		fatalErr error
	)
	sem := make(chan struct{}, ix.concurrency)

	for _, b := range batches {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(b batch) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := ix.embedder.Embed(ctx, b.texts)

			mu.Lock()
			defer mu.Unlock()

			var partial *domain.PartialBatchError
			switch {
			case err == nil:
				for j, vector := range result {
					vectors[b.start+j] = vector
				}
			case errors.As(err, &partial):
				for j, vector := range result {
					if _, failed := partial.Failed[j]; failed {
						continue
					}
					vectors[b.start+j] = vector
				}
				skipped += len(partial.Failed)
				ix.logger.Warn("embedding batch partially failed",
					"batch_start", b.start, "failed", len(partial.Failed))
			default:
				if fatalErr == nil {
					fatalErr = err
				}
			}
		}(b)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if fatalErr != nil {
		return nil, 0, domain.WrapError(domain.ErrEmbedding, "embed chunks", fatalErr)
	}
	return vectors, skipped, nil
}
