package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/smartprep/mcq-engine/internal/bootstrap"
	"github.com/smartprep/mcq-engine/internal/config"
	"github.com/smartprep/mcq-engine/internal/core/domain"
	"github.com/smartprep/mcq-engine/internal/core/ports"
)

// mcqgen ingests one document, processes it inline, runs a generation
// request against it, and prints the result as JSON.
func main() {
	var (
		file       = flag.String("file", "", "path to the source document (required)")
		format     = flag.String("format", "", "document format: pdf, docx, xlsx, image (default: from extension)")
		count      = flag.Int("count", 5, "number of questions to generate")
		difficulty = flag.String("difficulty", "medium", "difficulty: easy, medium, hard")
		strategy   = flag.String("strategy", "fast", "generation strategy: fast or thorough")
		pages      = flag.String("pages", "", "page filter, e.g. 1-10,12")
		topic      = flag.String("topic", "", "specific topic to focus on")
		keywords   = flag.String("keywords", "", "comma-separated keyword filter")
		language   = flag.String("language", "auto", "generation language: auto, english, hindi")
		subject    = flag.String("subject", "auto", "subject: auto, general, mathematics, physics, chemistry")
	)
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	ctx := context.Background()

	app, err := bootstrap.NewWithOptions(ctx, cfg, bootstrap.Options{
		Service:      "mcqgen",
		DisableQueue: true,
	})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("open document: %v", err)
	}
	defer f.Close()

	doc, err := app.Ingestor.Upload(ctx, filepath.Base(*file), resolveFormat(*format, *file), f)
	if err != nil {
		log.Fatalf("upload: %v", err)
	}
	if err := app.Processor.ProcessByID(ctx, doc.ID); err != nil {
		log.Fatalf("process: %v", err)
	}

	req := domain.GenerationRequest{
		DocumentID:   doc.ID,
		NumQuestions: *count,
		Difficulty:   domain.Difficulty(*difficulty),
		TopicScope:   domain.ScopeComprehensive,
		Pages:        *pages,
		Language:     domain.Language(*language),
		Subject:      domain.Subject(*subject),
	}
	if *topic != "" {
		req.TopicScope = domain.ScopeSpecific
		req.Topic = *topic
	}
	if *keywords != "" {
		for _, kw := range strings.Split(*keywords, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				req.Keywords = append(req.Keywords, kw)
			}
		}
	}

	result, err := app.Runner.Run(ctx, pickStrategy(app, *strategy), req)
	if err != nil {
		log.Fatalf("generation run: %v", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("encode result: %v", err)
	}
	fmt.Println(string(out))
}

func pickStrategy(app *bootstrap.App, name string) ports.QuestionGenerator {
	if strings.EqualFold(name, "thorough") {
		return app.Thorough
	}
	return app.Fast
}

func resolveFormat(explicit, path string) domain.Format {
	if explicit != "" {
		return domain.Format(strings.ToLower(explicit))
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return domain.FormatPDF
	case ".docx":
		return domain.FormatDOCX
	case ".xlsx":
		return domain.FormatXLSX
	case ".png", ".jpg", ".jpeg":
		return domain.FormatImage
	default:
		return domain.FormatPDF
	}
}
