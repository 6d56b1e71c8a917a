package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/smartprep/mcq-engine/internal/core/domain"
)

// Extractor pulls paragraph and table text out of DOCX archives. DOCX has
// no fixed pagination, so paragraphs are grouped into synthetic pages of
// paragraphsPerPage blocks to keep position metadata meaningful.
type Extractor struct{}

const paragraphsPerPage = 20

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ctx context.Context, content []byte, emit func(page int, text string) error) error {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return domain.WrapError(domain.ErrDocumentExtraction, "open docx archive", err)
	}

	paragraphs, err := documentParagraphs(reader)
	if err != nil {
		return err
	}
	if len(paragraphs) == 0 {
		return domain.WrapError(domain.ErrDocumentExtraction, "parse docx", fmt.Errorf("no paragraph text"))
	}

	page := 0
	for start := 0; start < len(paragraphs); start += paragraphsPerPage {
		if err := ctx.Err(); err != nil {
			return err
		}
		page++
		end := start + paragraphsPerPage
		if end > len(paragraphs) {
			end = len(paragraphs)
		}
		if err := emit(page, strings.Join(paragraphs[start:end], "\n")); err != nil {
			return err
		}
	}
	return nil
}

func documentParagraphs(reader *zip.Reader) ([]string, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, domain.WrapError(domain.ErrDocumentExtraction, "open document.xml", err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, domain.WrapError(domain.ErrDocumentExtraction, "read document.xml", err)
		}
		return parseDocumentXML(raw)
	}
	return nil, domain.WrapError(domain.ErrDocumentExtraction, "parse docx", fmt.Errorf("word/document.xml missing"))
}

// documentXML mirrors the subset of WordprocessingML we consume: body
// paragraphs with text runs, and table cells which nest paragraphs again.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
		Tables     []table     `xml:"tbl"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []string `xml:"t"`
}

type table struct {
	Rows []tableRow `xml:"tr"`
}

type tableRow struct {
	Cells []tableCell `xml:"tc"`
}

type tableCell struct {
	Paragraphs []paragraph `xml:"p"`
}

func parseDocumentXML(raw []byte) ([]string, error) {
	var doc documentXML
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, domain.WrapError(domain.ErrDocumentExtraction, "unmarshal document.xml", err)
	}

	out := make([]string, 0, len(doc.Body.Paragraphs))
	for _, p := range doc.Body.Paragraphs {
		if text := paragraphText(p); text != "" {
			out = append(out, text)
		}
	}
	for _, t := range doc.Body.Tables {
		for _, row := range t.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				var cellParts []string
				for _, p := range cell.Paragraphs {
					if text := paragraphText(p); text != "" {
						cellParts = append(cellParts, text)
					}
				}
				if len(cellParts) > 0 {
					cells = append(cells, strings.Join(cellParts, " "))
				}
			}
			if len(cells) > 0 {
				out = append(out, strings.Join(cells, " | "))
			}
		}
	}
	return out, nil
}

func paragraphText(p paragraph) string {
	var b strings.Builder
	for _, r := range p.Runs {
		for _, t := range r.Text {
			b.WriteString(t)
		}
	}
	return strings.TrimSpace(b.String())
}
