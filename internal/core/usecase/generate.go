package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/smartprep/mcq-engine/internal/core/domain"
	"github.com/smartprep/mcq-engine/internal/core/ports"
	"github.com/smartprep/mcq-engine/internal/observability/metrics"
)

// Runner executes one generation run end to end: strategy, run summary,
// metrics, and the handoff of the accepted batch to the question sink.
type Runner struct {
	sink    ports.QuestionSink
	metrics *metrics.PipelineMetrics
	service string
	logger  *slog.Logger
}

func NewRunner(sink ports.QuestionSink, m *metrics.PipelineMetrics, service string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{sink: sink, metrics: m, service: service, logger: logger}
}

// Run never reports partial success silently: it returns either a result
// whose summary accounts for every candidate, or a typed failure.
func (r *Runner) Run(ctx context.Context, strategy ports.QuestionGenerator, req domain.GenerationRequest) (*domain.RunResult, error) {
	start := time.Now()

	result, err := strategy.Generate(ctx, req)
	duration := time.Since(start)
	if err != nil {
		r.observeRun(strategy.Name(), "failed", duration)
		r.logger.Error("generation run failed",
			"strategy", strategy.Name(), "document_id", req.DocumentID, "error", err)
		return nil, err
	}
	result.Summary.Duration = duration

	r.observeRun(strategy.Name(), "ok", duration)
	if r.metrics != nil {
		for range result.Questions {
			r.metrics.CountQuestion(r.service, "accepted")
		}
		for _, rej := range result.Summary.Rejected {
			r.metrics.CountQuestion(r.service, string(rej.Reason))
		}
	}
	r.logger.Info("generation run finished",
		"strategy", strategy.Name(),
		"document_id", req.DocumentID,
		"requested", result.Summary.Requested,
		"accepted", result.Summary.Accepted,
		"rejected", len(result.Summary.Rejected),
		"skipped_units", result.Summary.SkippedUnits,
		"duration", duration)

	if r.sink != nil && len(result.Questions) > 0 {
		if err := r.sink.StoreQuestions(ctx, req.DocumentID, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *Runner) observeRun(strategy, outcome string, duration time.Duration) {
	if r.metrics != nil {
		r.metrics.ObserveRun(r.service, strategy, outcome, duration)
	}
}
