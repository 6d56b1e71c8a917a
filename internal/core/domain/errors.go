package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrDocumentExtraction marks an unreadable or corrupted document.
	// Unrecoverable per document; surfaced to the caller.
	ErrDocumentExtraction = errors.New("document extraction failed")
	// ErrOCRUnavailable marks a missing or unreachable OCR engine. The
	// caller may retry after provisioning OCR.
	ErrOCRUnavailable = errors.New("ocr engine unavailable")
	// ErrEmbedding marks a persistent per-item embedding failure.
	ErrEmbedding = errors.New("embedding failed")
	// ErrGenerationCall marks a single failed generation service call.
	ErrGenerationCall = errors.New("generation call failed")
	// ErrGenerationExhausted marks a run that produced zero usable
	// candidates.
	ErrGenerationExhausted = errors.New("generation exhausted")
	// ErrIndexIsolation marks a cross-collection leak in the vector index.
	// Internal invariant breach; always fatal, never ignored.
	ErrIndexIsolation = errors.New("index isolation violated")
	// ErrTemporary marks retryable infrastructure failures.
	ErrTemporary = errors.New("temporary failure")
	// ErrInvalidInput marks malformed caller input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDocumentNotFound marks a missing document record.
	ErrDocumentNotFound = errors.New("document not found")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// PartialBatchError reports per-item failures in a batch embedding call.
// Sibling items still carry valid vectors; only the listed indices failed.
type PartialBatchError struct {
	Failed map[int]error
}

func (e *PartialBatchError) Error() string {
	if e == nil || len(e.Failed) == 0 {
		return "partial batch failure"
	}
	idx := make([]int, 0, len(e.Failed))
	for i := range e.Failed {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	parts := make([]string, 0, len(idx))
	for _, i := range idx {
		parts = append(parts, fmt.Sprintf("item %d: %v", i, e.Failed[i]))
	}
	return "partial batch failure: " + strings.Join(parts, "; ")
}

func (e *PartialBatchError) Unwrap() error { return ErrEmbedding }
