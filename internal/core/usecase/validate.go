package usecase

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/smartprep/mcq-engine/internal/core/domain"
	"github.com/smartprep/mcq-engine/internal/core/ports"
)

// metaPatterns mark administrative stems that slip out of exam papers used
// as source material. They are rejected for exact-science subjects.
var metaPatterns = []string{
	"instruction",
	"marking scheme",
	"question paper",
	"exam pattern",
	"this section",
	"how many marks",
	"answer sheet",
}

// Validator filters generated candidates in declared order: structure,
// subject fit, near-duplicate, quota. Checks short-circuit per candidate
// and accepted order follows generation order.
type Validator struct {
	embedder       ports.Embedder
	dedupThreshold float64
	logger         *slog.Logger
}

func NewValidator(embedder ports.Embedder, dedupThreshold float64, logger *slog.Logger) *Validator {
	if dedupThreshold <= 0 || dedupThreshold > 1 {
		dedupThreshold = 0.92
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{embedder: embedder, dedupThreshold: dedupThreshold, logger: logger}
}

func (v *Validator) Validate(ctx context.Context, candidates []domain.Question, limit int) ([]domain.Question, []domain.RejectedQuestion) {
	accepted := make([]domain.Question, 0, limit)
	var rejected []domain.RejectedQuestion
	var acceptedVectors [][]float32

	for _, candidate := range candidates {
		if len(accepted) >= limit {
			rejected = append(rejected, domain.RejectedQuestion{Question: candidate, Reason: domain.RejectQuota})
			continue
		}
		if !candidate.StructurallyValid() {
			rejected = append(rejected, domain.RejectedQuestion{Question: candidate, Reason: domain.RejectStructural})
			continue
		}
		if candidate.Subject.IsExact() && matchesMetaPattern(candidate.Stem) {
			rejected = append(rejected, domain.RejectedQuestion{Question: candidate, Reason: domain.RejectSubjectFit})
			continue
		}

		vector, dupOf := v.findDuplicate(ctx, candidate, accepted, acceptedVectors)
		if dupOf != "" {
			rejected = append(rejected, domain.RejectedQuestion{
				Question:    candidate,
				Reason:      domain.RejectNearDup,
				DuplicateOf: dupOf,
			})
			continue
		}

		accepted = append(accepted, candidate)
		acceptedVectors = append(acceptedVectors, vector)
	}
	return accepted, rejected
}

// findDuplicate embeds the candidate stem and compares it against every
// previously accepted stem. The earliest accepted question wins a tie. A
// failed embedding downgrades to stem-equality checking rather than
// rejecting the candidate, since dedup is advisory.
func (v *Validator) findDuplicate(
	ctx context.Context,
	candidate domain.Question,
	accepted []domain.Question,
	acceptedVectors [][]float32,
) ([]float32, string) {
	vector, err := v.embedder.EmbedQuery(ctx, candidate.Stem)
	if err != nil {
		v.logger.Warn("dedup embedding failed, falling back to exact stem match", "error", err)
		for _, prior := range accepted {
			if strings.EqualFold(strings.TrimSpace(prior.Stem), strings.TrimSpace(candidate.Stem)) {
				return nil, prior.ID
			}
		}
		return nil, ""
	}

	for i, prior := range accepted {
		if acceptedVectors[i] == nil {
			continue
		}
		if stemSimilarity(vector, acceptedVectors[i]) >= v.dedupThreshold {
			return nil, prior.ID
		}
	}
	return vector, ""
}

func matchesMetaPattern(stem string) bool {
	lowered := strings.ToLower(stem)
	for _, pattern := range metaPatterns {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}

func stemSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
