package extractor

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/smartprep/mcq-engine/internal/core/domain"
	"github.com/smartprep/mcq-engine/internal/core/ports"
	"github.com/smartprep/mcq-engine/internal/infrastructure/chunking"
)

// PageExtractor is one format-specific extraction function. Implementations
// stream page text through emit in page order.
type PageExtractor interface {
	Extract(ctx context.Context, content []byte, emit func(page int, text string) error) error
}

// Decomposer dispatches a document to its format extractor, normalizes the
// page text, applies the page filter, and emits ordered chunks. Chunks are
// produced as pages arrive; a large document never materializes fully
// before its first chunk is available downstream.
type Decomposer struct {
	storage    ports.ObjectStorage
	classifier ports.ChunkClassifier
	splitter   *chunking.Splitter
	extractors map[domain.Format]PageExtractor

	minChunkWords int
}

func NewDecomposer(
	storage ports.ObjectStorage,
	classifier ports.ChunkClassifier,
	splitter *chunking.Splitter,
	extractors map[domain.Format]PageExtractor,
	minChunkWords int,
) *Decomposer {
	if minChunkWords <= 0 {
		minChunkWords = 8
	}
	return &Decomposer{
		storage:       storage,
		classifier:    classifier,
		splitter:      splitter,
		extractors:    extractors,
		minChunkWords: minChunkWords,
	}
}

func (d *Decomposer) Decompose(
	ctx context.Context,
	doc *domain.Document,
	pages *domain.PageSet,
	emit func(domain.Chunk) error,
) error {
	ext, ok := d.extractors[doc.Format]
	if !ok {
		return domain.WrapError(domain.ErrDocumentExtraction, "dispatch format", fmt.Errorf("unsupported format %q", doc.Format))
	}

	content, err := d.readContent(ctx, doc)
	if err != nil {
		return err
	}

	seq := 0
	var prevBoundaries [2]string
	return ext.Extract(ctx, content, func(page int, text string) error {
		// Page filter applies before any downstream work so out-of-range
		// pages never reach embedding, regardless of extractor order.
		if !pages.Contains(page) {
			return nil
		}

		text, prevBoundaries = stripRepeatedBoundaries(text, prevBoundaries)
		text = collapseWhitespace(text)

		for _, piece := range d.splitter.Split(text) {
			if len(strings.Fields(piece)) < d.minChunkWords {
				continue
			}
			cls := d.classify(piece)
			chunk := domain.Chunk{
				DocumentID: doc.ID,
				Seq:        seq,
				Page:       page,
				Text:       piece,
				Language:   cls.Language,
				Subject:    cls.Subject,
			}
			seq++
			if err := emit(chunk); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *Decomposer) readContent(ctx context.Context, doc *domain.Document) ([]byte, error) {
	reader, err := d.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, domain.WrapError(domain.ErrDocumentExtraction, "open stored document", err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, domain.WrapError(domain.ErrDocumentExtraction, "read stored document", err)
	}
	if len(content) == 0 {
		return nil, domain.WrapError(domain.ErrDocumentExtraction, "read stored document", fmt.Errorf("empty content"))
	}
	return content, nil
}

func (d *Decomposer) classify(text string) domain.Classification {
	if d.classifier == nil {
		return domain.Classification{}
	}
	return d.classifier.Classify(text)
}

// stripRepeatedBoundaries drops a page's first/last line when it repeats
// the previous page's, suppressing running headers and footers.
func stripRepeatedBoundaries(text string, prev [2]string) (string, [2]string) {
	lines := strings.Split(text, "\n")
	first, last := boundaryLines(lines)

	kept := lines
	if first != "" && first == prev[0] {
		kept = kept[1:]
	}
	if last != "" && last == prev[1] && len(kept) > 0 {
		kept = kept[:len(kept)-1]
	}
	return strings.Join(kept, "\n"), [2]string{first, last}
}

func boundaryLines(lines []string) (first, last string) {
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			first = trimmed
			break
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			last = trimmed
			break
		}
	}
	return first, last
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
