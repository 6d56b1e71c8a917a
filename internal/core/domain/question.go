package domain

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type TopicScope string

const (
	ScopeComprehensive TopicScope = "comprehensive"
	ScopeSpecific      TopicScope = "specific"
)

// GenerationRequest is the immutable input to one generation run.
type GenerationRequest struct {
	DocumentID   string     `json:"document_id"`
	NumQuestions int        `json:"num_questions"`
	Difficulty   Difficulty `json:"difficulty"`
	TopicScope   TopicScope `json:"topic_scope"`
	Topic        string     `json:"topic,omitempty"`
	Pages        string     `json:"pages,omitempty"`
	Keywords     []string   `json:"keywords,omitempty"`
	Language     Language   `json:"language"`
	Subject      Subject    `json:"subject"`
}

const questionChoices = 4

// Question is a generated MCQ candidate. The validator is the only mutator;
// after acceptance it is handed off immutable.
type Question struct {
	ID           string     `json:"id"`
	Stem         string     `json:"stem"`
	Options      []string   `json:"options"`
	CorrectIndex int        `json:"correct_index"`
	Explanation  string     `json:"explanation,omitempty"`
	Difficulty   Difficulty `json:"difficulty"`
	Subject      Subject    `json:"subject"`
	Language     Language   `json:"language"`
	TopicTags    []string   `json:"topic_tags,omitempty"`
	Marks        int        `json:"marks"`
	SourceChunks []int      `json:"source_chunks,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// StructurallyValid checks the invariants every accepted question must hold:
// exactly four options, a correct index inside them, and a non-empty stem.
func (q Question) StructurallyValid() bool {
	if q.Stem == "" {
		return false
	}
	if len(q.Options) != questionChoices {
		return false
	}
	return q.CorrectIndex >= 0 && q.CorrectIndex < questionChoices
}

// CorrectAnswer returns the text of the marked choice.
func (q Question) CorrectAnswer() string {
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectIndex]
}

type RejectionReason string

const (
	RejectStructural   RejectionReason = "structural"
	RejectParseFailure RejectionReason = "parse-failure"
	RejectSubjectFit   RejectionReason = "subject-fit"
	RejectNearDup      RejectionReason = "near-duplicate"
	RejectQuota        RejectionReason = "quota-reached"
)

type RejectedQuestion struct {
	Question Question        `json:"question"`
	Reason   RejectionReason `json:"reason"`
	// DuplicateOf holds the id of the earlier accepted question when
	// Reason is RejectNearDup.
	DuplicateOf string `json:"duplicate_of,omitempty"`
}

// RunSummary reports what happened to every candidate in a generation run.
// A run never silently drops work: everything is either accepted, rejected
// with a reason, or counted as a skipped unit.
type RunSummary struct {
	Requested    int                     `json:"requested"`
	Accepted     int                     `json:"accepted"`
	Rejected     []RejectedQuestion      `json:"rejected,omitempty"`
	RejectCounts map[RejectionReason]int `json:"reject_counts,omitempty"`
	SkippedUnits int                     `json:"skipped_units"`
	Strategy     string                  `json:"strategy"`
	Duration     time.Duration           `json:"duration"`
}

// RunResult is the outcome of a whole generation run.
type RunResult struct {
	Questions []Question `json:"questions"`
	Summary   RunSummary `json:"summary"`
}
