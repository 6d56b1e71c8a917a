package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/smartprep/mcq-engine/internal/core/domain"
	"github.com/smartprep/mcq-engine/internal/core/ports"
)

// minTextChars is the per-page character-density threshold below which a
// page is treated as scanned and routed to OCR.
const minTextChars = 32

// Extractor extracts page-wise text from PDF documents, falling back to the
// OCR engine for pages whose extracted text is empty or too sparse.
type Extractor struct {
	ocr              ports.OCREngine
	minOCRConfidence float64
}

func New(ocr ports.OCREngine, minOCRConfidence float64) *Extractor {
	return &Extractor{ocr: ocr, minOCRConfidence: minOCRConfidence}
}

// Extract streams per-page text through emit in page order. Pages below the
// text-density threshold go through OCR; OCR confidence under the floor
// yields no text for that page rather than garbage.
func (e *Extractor) Extract(ctx context.Context, content []byte, emit func(page int, text string) error) (err error) {
	defer func() {
		// The pdf package panics on some malformed files.
		if r := recover(); r != nil {
			err = domain.WrapError(domain.ErrDocumentExtraction, "parse pdf", fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return domain.WrapError(domain.ErrDocumentExtraction, "open pdf", err)
	}

	total := reader.NumPage()
	if total == 0 {
		return domain.WrapError(domain.ErrDocumentExtraction, "open pdf", fmt.Errorf("zero pages"))
	}

	for pageNum := 1; pageNum <= total; pageNum++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		text := e.pageText(reader, pageNum)
		if len(strings.TrimSpace(text)) < minTextChars {
			ocrText, ocrErr := e.recognizePage(ctx, content, pageNum)
			if ocrErr != nil {
				return ocrErr
			}
			text = ocrText
		}

		if err := emit(pageNum, text); err != nil {
			return err
		}
	}
	return nil
}

// PageCount reports the number of pages without extracting text.
func (e *Extractor) PageCount(content []byte) (int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, domain.WrapError(domain.ErrDocumentExtraction, "open pdf", err)
	}
	return reader.NumPage(), nil
}

func (e *Extractor) pageText(reader *pdf.Reader, pageNum int) string {
	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}

func (e *Extractor) recognizePage(ctx context.Context, content []byte, pageNum int) (string, error) {
	if e.ocr == nil {
		return "", domain.WrapError(domain.ErrOCRUnavailable, "ocr pdf page", fmt.Errorf("no ocr engine configured"))
	}
	text, confidence, err := e.ocr.Recognize(ctx, content, pageNum)
	if err != nil {
		return "", err
	}
	if confidence < e.minOCRConfidence {
		return "", nil
	}
	return text, nil
}
