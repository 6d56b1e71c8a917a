package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/smartprep/mcq-engine/internal/core/domain"
)

// Extractor renders spreadsheet rows as text, one synthetic page per sheet.
// Tabular course material (formula sheets, constant tables) flows through
// the same chunking path as prose.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ctx context.Context, content []byte, emit func(page int, text string) error) error {
	book, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return domain.WrapError(domain.ErrDocumentExtraction, "open xlsx", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return domain.WrapError(domain.ErrDocumentExtraction, "parse xlsx", fmt.Errorf("no sheets"))
	}

	for i, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return err
		}
		rows, err := book.GetRows(sheet)
		if err != nil {
			return domain.WrapError(domain.ErrDocumentExtraction, "read sheet rows", err)
		}

		var b strings.Builder
		b.WriteString(sheet)
		b.WriteString("\n")
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " | "))
			if line == "" {
				continue
			}
			b.WriteString(line)
			b.WriteString("\n")
		}

		if err := emit(i+1, b.String()); err != nil {
			return err
		}
	}
	return nil
}
