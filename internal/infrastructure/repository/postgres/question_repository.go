package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/smartprep/mcq-engine/internal/core/domain"
)

// QuestionRepository persists accepted questions together with their run
// provenance. It is the delivery end of the generation pipeline.
type QuestionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) EnsureSchema(ctx context.Context) error {
	const query = `
CREATE TABLE IF NOT EXISTS questions (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	stem TEXT NOT NULL,
	options JSONB NOT NULL,
	correct_index INTEGER NOT NULL,
	explanation TEXT NOT NULL,
	difficulty TEXT NOT NULL,
	subject TEXT NOT NULL,
	language TEXT NOT NULL,
	topic_tags JSONB NOT NULL DEFAULT '[]'::jsonb,
	marks INTEGER NOT NULL DEFAULT 1,
	source_chunks JSONB NOT NULL DEFAULT '[]'::jsonb,
	strategy TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_questions_document_id ON questions(document_id);
`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute questions ddl: %w", err)
	}
	return nil
}

// StoreQuestions writes the accepted batch in one transaction so a partial
// run never leaves a half-stored question set behind.
func (r *QuestionRepository) StoreQuestions(ctx context.Context, documentID string, result *domain.RunResult) error {
	if result == nil || len(result.Questions) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin questions tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const query = `
INSERT INTO questions (
	id, document_id, stem, options, correct_index, explanation, difficulty, subject, language, topic_tags, marks, source_chunks, strategy, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`
	for _, q := range result.Questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("marshal options: %w", err)
		}
		tags, err := json.Marshal(q.TopicTags)
		if err != nil {
			return fmt.Errorf("marshal topic tags: %w", err)
		}
		sources, err := json.Marshal(q.SourceChunks)
		if err != nil {
			return fmt.Errorf("marshal source chunks: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query,
			q.ID, documentID, q.Stem, options, q.CorrectIndex, q.Explanation,
			string(q.Difficulty), string(q.Subject), string(q.Language),
			tags, q.Marks, sources, result.Summary.Strategy, q.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit questions tx: %w", err)
	}
	return nil
}
