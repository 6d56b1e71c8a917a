package gemini

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smartprep/mcq-engine/internal/core/domain"
)

// questionBlock is the declared output contract for one candidate. Parsing
// is defensive: each block is decoded independently so one malformed block
// rejects only itself.
type questionBlock struct {
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectAnswerIndex *int     `json:"correct_answer_index"`
	Explanation        string   `json:"explanation"`
	TopicTags          []string `json:"topic_tags"`
	Marks              int      `json:"marks"`
}

// parseQuestionBlocks extracts the JSON array from raw model output and
// converts each well-formed block into a question candidate. Unparseable
// blocks become parse-failure rejections, never fatal errors.
func parseQuestionBlocks(raw string, prompt domain.GenerationPrompt) ([]domain.Question, []domain.RejectedQuestion) {
	array := extractJSONArray(raw)
	if array == "" {
		return nil, wholeResponseRejected(raw)
	}

	var blocks []json.RawMessage
	if err := json.Unmarshal([]byte(array), &blocks); err != nil {
		return nil, wholeResponseRejected(raw)
	}

	now := time.Now().UTC()
	questions := make([]domain.Question, 0, len(blocks))
	var rejected []domain.RejectedQuestion

	for _, rawBlock := range blocks {
		var block questionBlock
		if err := json.Unmarshal(rawBlock, &block); err != nil {
			rejected = append(rejected, domain.RejectedQuestion{
				Question: domain.Question{Stem: truncate(string(rawBlock), 200)},
				Reason:   domain.RejectParseFailure,
			})
			continue
		}
		if strings.TrimSpace(block.Question) == "" || block.CorrectAnswerIndex == nil {
			rejected = append(rejected, domain.RejectedQuestion{
				Question: domain.Question{Stem: truncate(block.Question, 200)},
				Reason:   domain.RejectParseFailure,
			})
			continue
		}

		marks := block.Marks
		if marks <= 0 {
			marks = 1
		}
		explanation := strings.TrimSpace(block.Explanation)
		if explanation == "" {
			explanation = "Correct answer selected."
		}

		questions = append(questions, domain.Question{
			ID:           uuid.NewString(),
			Stem:         strings.TrimSpace(block.Question),
			Options:      block.Options,
			CorrectIndex: *block.CorrectAnswerIndex,
			Explanation:  explanation,
			Difficulty:   prompt.Difficulty,
			Subject:      prompt.Subject,
			Language:     prompt.Language,
			TopicTags:    block.TopicTags,
			Marks:        marks,
			SourceChunks: prompt.SourceChunks,
			CreatedAt:    now,
		})
	}
	return questions, rejected
}

// wholeResponseRejected accounts for a response with no decodable question
// array: the unit yields one parse-failure rejection carrying a snippet of
// the raw output, so the run summary never hides the lost call.
func wholeResponseRejected(raw string) []domain.RejectedQuestion {
	return []domain.RejectedQuestion{{
		Question: domain.Question{Stem: truncate(raw, 200)},
		Reason:   domain.RejectParseFailure,
	}}
}

// extractJSONArray pulls the outermost JSON array out of model output that
// may wrap it in prose or markdown fences.
func extractJSONArray(raw string) string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return ""
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
