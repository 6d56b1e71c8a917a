package usecase

import (
	"strings"
	"time"

	"github.com/smartprep/mcq-engine/internal/core/domain"
)

const (
	StrategyThorough = "thorough"
	StrategyFast     = "fast"
)

// cleanupTimeout bounds ephemeral collection deletion after a run ends,
// including after caller cancellation.
const cleanupTimeout = 10 * time.Second

// resolveClassification turns the request's language/subject into concrete
// values. Explicit request values win; auto resolves by majority vote over
// the classified chunks, falling back to the configured defaults.
func resolveClassification(req domain.GenerationRequest, chunks []domain.Chunk, defaults domain.Classification) domain.Classification {
	cls := domain.Classification{Language: req.Language, Subject: req.Subject}

	if cls.Language == "" || cls.Language == domain.LanguageAuto {
		cls.Language = majorityLanguage(chunks, defaults.Language)
	}
	if cls.Subject == "" || cls.Subject == domain.SubjectAuto {
		cls.Subject = majoritySubject(chunks, defaults.Subject)
	}
	return cls
}

func majorityLanguage(chunks []domain.Chunk, fallback domain.Language) domain.Language {
	counts := make(map[domain.Language]int)
	for _, chunk := range chunks {
		if chunk.Language != "" {
			counts[chunk.Language]++
		}
	}
	best, bestCount := fallback, 0
	for language, count := range counts {
		if count > bestCount {
			best, bestCount = language, count
		}
	}
	return best
}

func majoritySubject(chunks []domain.Chunk, fallback domain.Subject) domain.Subject {
	counts := make(map[domain.Subject]int)
	for _, chunk := range chunks {
		if chunk.Subject != "" && chunk.Subject != domain.SubjectGeneral {
			counts[chunk.Subject]++
		}
	}
	best, bestCount := fallback, 0
	for subject, count := range counts {
		if count > bestCount {
			best, bestCount = subject, count
		}
	}
	return best
}

// filterByKeywords keeps chunks mentioning any of the requested keywords.
// An empty keyword list keeps everything.
func filterByKeywords(chunks []domain.Chunk, keywords []string) []domain.Chunk {
	if len(keywords) == 0 {
		return chunks
	}
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	out := make([]domain.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		text := strings.ToLower(chunk.Text)
		for _, kw := range lowered {
			if strings.Contains(text, kw) {
				out = append(out, chunk)
				break
			}
		}
	}
	return out
}

func rejectCounts(rejected []domain.RejectedQuestion) map[domain.RejectionReason]int {
	if len(rejected) == 0 {
		return nil
	}
	counts := make(map[domain.RejectionReason]int)
	for _, r := range rejected {
		counts[r.Reason]++
	}
	return counts
}
