package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/smartprep/mcq-engine/internal/core/domain"
)

func newQuestionRepoWithMock(t *testing.T) (*QuestionRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &QuestionRepository{db: db}, mock, func() { _ = db.Close() }
}

func sampleResult(n int) *domain.RunResult {
	questions := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, domain.Question{
			ID:           fmt.Sprintf("q-%d", i),
			Stem:         fmt.Sprintf("Question %d?", i),
			Options:      []string{"A", "B", "C", "D"},
			CorrectIndex: i % 4,
			Explanation:  "because",
			Difficulty:   domain.DifficultyMedium,
			Subject:      domain.SubjectPhysics,
			Language:     domain.LanguageEnglish,
			Marks:        1,
			SourceChunks: []int{i},
			CreatedAt:    time.Now().UTC(),
		})
	}
	return &domain.RunResult{
		Questions: questions,
		Summary:   domain.RunSummary{Strategy: "thorough", Accepted: n},
	}
}

func TestStoreQuestionsCommitsBatch(t *testing.T) {
	repo, mock, done := newQuestionRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	for i := 0; i < 2; i++ {
		mock.ExpectExec("INSERT INTO questions").
			WithArgs(
				fmt.Sprintf("q-%d", i), "doc-1", fmt.Sprintf("Question %d?", i),
				sqlmock.AnyArg(), i%4, "because", "medium", "physics", "english",
				sqlmock.AnyArg(), 1, sqlmock.AnyArg(), "thorough", sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	if err := repo.StoreQuestions(context.Background(), "doc-1", sampleResult(2)); err != nil {
		t.Fatalf("StoreQuestions error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestStoreQuestionsRollsBackOnInsertFailure(t *testing.T) {
	repo, mock, done := newQuestionRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO questions").
		WillReturnError(fmt.Errorf("constraint violation"))
	mock.ExpectRollback()

	if err := repo.StoreQuestions(context.Background(), "doc-1", sampleResult(2)); err == nil {
		t.Fatalf("expected insert failure to surface")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestStoreQuestionsNoopOnEmptyBatch(t *testing.T) {
	repo, mock, done := newQuestionRepoWithMock(t)
	defer done()

	if err := repo.StoreQuestions(context.Background(), "doc-1", &domain.RunResult{}); err != nil {
		t.Fatalf("StoreQuestions error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no statements expected: %v", err)
	}
}
