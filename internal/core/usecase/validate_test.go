package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/smartprep/mcq-engine/internal/core/domain"
)

func validQuestion(id, stem string, subject domain.Subject) domain.Question {
	return domain.Question{
		ID:           id,
		Stem:         stem,
		Options:      []string{"A", "B", "C", "D"},
		CorrectIndex: 1,
		Subject:      subject,
	}
}

func TestValidateStructuralRejection(t *testing.T) {
	v := NewValidator(newEmbedderFake(), 0.92, nil)

	broken := validQuestion("q1", "Broken question?", domain.SubjectGeneral)
	broken.Options = broken.Options[:3]

	accepted, rejected := v.Validate(context.Background(), []domain.Question{broken}, 5)
	if len(accepted) != 0 {
		t.Fatalf("accepted = %d, want 0", len(accepted))
	}
	if len(rejected) != 1 || rejected[0].Reason != domain.RejectStructural {
		t.Fatalf("rejected = %+v, want one structural rejection", rejected)
	}
}

func TestValidateMetaPatternOnlyForExactSubjects(t *testing.T) {
	v := NewValidator(newEmbedderFake(), 0.92, nil)
	stem := "Which instruction applies to section B of the paper?"

	mathQ := validQuestion("q1", stem, domain.SubjectMathematics)
	generalQ := validQuestion("q2", stem, domain.SubjectGeneral)

	accepted, rejected := v.Validate(context.Background(), []domain.Question{mathQ, generalQ}, 5)
	if len(accepted) != 1 || accepted[0].ID != "q2" {
		t.Fatalf("accepted = %+v, want only the general-subject question", accepted)
	}
	if len(rejected) != 1 || rejected[0].Reason != domain.RejectSubjectFit {
		t.Fatalf("rejected = %+v, want one subject-fit rejection", rejected)
	}
}

func TestValidateNearDuplicateKeepsEarliest(t *testing.T) {
	embedder := newEmbedderFake()
	embedder.aliases = map[string]string{
		"What is kinetic energy really?": "What is kinetic energy?",
	}
	v := NewValidator(embedder, 0.92, nil)

	first := validQuestion("q1", "What is kinetic energy?", domain.SubjectPhysics)
	dup := validQuestion("q2", "What is kinetic energy really?", domain.SubjectPhysics)
	distinct := validQuestion("q3", "What is potential energy?", domain.SubjectPhysics)

	accepted, rejected := v.Validate(context.Background(), []domain.Question{first, dup, distinct}, 5)
	if len(accepted) != 2 || accepted[0].ID != "q1" || accepted[1].ID != "q3" {
		t.Fatalf("accepted = %+v, want q1 and q3", accepted)
	}
	if len(rejected) != 1 || rejected[0].Reason != domain.RejectNearDup || rejected[0].DuplicateOf != "q1" {
		t.Fatalf("rejected = %+v, want q2 as duplicate of q1", rejected)
	}
}

func TestValidateQuotaRejection(t *testing.T) {
	v := NewValidator(newEmbedderFake(), 0.92, nil)

	var candidates []domain.Question
	for i := 0; i < 5; i++ {
		candidates = append(candidates, validQuestion(
			fmt.Sprintf("q%d", i), fmt.Sprintf("Distinct question number %d?", i), domain.SubjectGeneral))
	}

	accepted, rejected := v.Validate(context.Background(), candidates, 3)
	if len(accepted) != 3 {
		t.Fatalf("accepted = %d, want 3", len(accepted))
	}
	if len(rejected) != 2 {
		t.Fatalf("rejected = %d, want 2", len(rejected))
	}
	for _, r := range rejected {
		if r.Reason != domain.RejectQuota {
			t.Fatalf("reason = %s, want quota-reached", r.Reason)
		}
	}
}

func TestValidatePreservesGenerationOrder(t *testing.T) {
	v := NewValidator(newEmbedderFake(), 0.92, nil)

	var candidates []domain.Question
	for i := 0; i < 4; i++ {
		candidates = append(candidates, validQuestion(
			fmt.Sprintf("q%d", i), fmt.Sprintf("Ordered question number %d?", i), domain.SubjectGeneral))
	}

	accepted, _ := v.Validate(context.Background(), candidates, 10)
	for i, q := range accepted {
		if q.ID != fmt.Sprintf("q%d", i) {
			t.Fatalf("accepted[%d] = %s, order not preserved", i, q.ID)
		}
	}
}

func TestValidateEmbedFailureFallsBackToExactMatch(t *testing.T) {
	embedder := newEmbedderFake()
	embedder.err = fmt.Errorf("embedding service down")
	v := NewValidator(embedder, 0.92, nil)

	first := validQuestion("q1", "Same stem?", domain.SubjectGeneral)
	exactDup := validQuestion("q2", "Same stem?", domain.SubjectGeneral)

	accepted, rejected := v.Validate(context.Background(), []domain.Question{first, exactDup}, 5)
	if len(accepted) != 1 || accepted[0].ID != "q1" {
		t.Fatalf("accepted = %+v, want only q1", accepted)
	}
	if len(rejected) != 1 || rejected[0].Reason != domain.RejectNearDup {
		t.Fatalf("rejected = %+v, want exact-match duplicate", rejected)
	}
}
