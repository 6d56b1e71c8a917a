package image

import (
	"context"
	"fmt"

	"github.com/smartprep/mcq-engine/internal/core/domain"
	"github.com/smartprep/mcq-engine/internal/core/ports"
)

// Extractor routes standalone images straight through the OCR engine.
type Extractor struct {
	ocr              ports.OCREngine
	minOCRConfidence float64
}

func New(ocr ports.OCREngine, minOCRConfidence float64) *Extractor {
	return &Extractor{ocr: ocr, minOCRConfidence: minOCRConfidence}
}

func (e *Extractor) Extract(ctx context.Context, content []byte, emit func(page int, text string) error) error {
	if e.ocr == nil {
		return domain.WrapError(domain.ErrOCRUnavailable, "ocr image", fmt.Errorf("no ocr engine configured"))
	}

	text, confidence, err := e.ocr.Recognize(ctx, content, 0)
	if err != nil {
		return err
	}
	if confidence < e.minOCRConfidence {
		return domain.WrapError(domain.ErrDocumentExtraction, "ocr image", fmt.Errorf("confidence %.2f below floor", confidence))
	}
	return emit(1, text)
}
