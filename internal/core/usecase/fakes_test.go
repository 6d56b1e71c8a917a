package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/smartprep/mcq-engine/internal/config"
	"github.com/smartprep/mcq-engine/internal/core/domain"
)

func testProfiles() config.Profiles {
	return config.DefaultProfiles()
}

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

type repoFake struct {
	mu          sync.Mutex
	doc         *domain.Document
	created     []*domain.Document
	getErr      error
	statusCalls []statusCall
	savedCls    domain.Classification
	savedPages  int
}

func (f *repoFake) Create(_ context.Context, doc *domain.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, doc)
	return nil
}

func (f *repoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.doc == nil || f.doc.ID != id {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *repoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	return nil
}

func (f *repoFake) SaveClassification(_ context.Context, _ string, cls domain.Classification, pageCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedCls = cls
	f.savedPages = pageCount
	return nil
}

type decomposerFake struct {
	chunks []domain.Chunk
	err    error
}

func (f *decomposerFake) Decompose(_ context.Context, _ *domain.Document, pages *domain.PageSet, emit func(domain.Chunk) error) error {
	if f.err != nil {
		return f.err
	}
	for _, chunk := range f.chunks {
		if !pages.Contains(chunk.Page) {
			continue
		}
		if err := emit(chunk); err != nil {
			return err
		}
	}
	return nil
}

// embedderFake returns orthogonal one-hot vectors per distinct text, so
// distinct stems never look like near-duplicates while identical (or
// aliased) stems score 1.0.
type embedderFake struct {
	mu      sync.Mutex
	slots   map[string]int
	aliases map[string]string
	err     error
	itemErr map[string]error
}

func newEmbedderFake() *embedderFake {
	return &embedderFake{slots: make(map[string]int)}
}

func (f *embedderFake) ModelID() string { return "fake-embed" }

func (f *embedderFake) vectorFor(text string) []float32 {
	if canonical, ok := f.aliases[text]; ok {
		text = canonical
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[text]
	if !ok {
		slot = len(f.slots)
		f.slots[text] = slot
	}
	vector := make([]float32, 64)
	vector[slot%64] = 1
	return vector
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	failed := make(map[int]error)
	for i, text := range texts {
		if err, ok := f.itemErr[text]; ok {
			failed[i] = err
			continue
		}
		out[i] = f.vectorFor(text)
	}
	if len(failed) > 0 {
		return out, &domain.PartialBatchError{Failed: failed}
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err, ok := f.itemErr[text]; ok {
		return nil, err
	}
	return f.vectorFor(text), nil
}

// generatorFake produces prompt.Count structurally valid questions with
// globally unique stems, unless told to fail or misbehave for a call.
type generatorFake struct {
	mu        sync.Mutex
	calls     int
	prompts   []domain.GenerationPrompt
	failCalls map[int]error
	produce   func(call int, prompt domain.GenerationPrompt) ([]domain.Question, []domain.RejectedQuestion)
	text      string
	textErr   error
}

func (f *generatorFake) GenerateQuestions(_ context.Context, prompt domain.GenerationPrompt) ([]domain.Question, []domain.RejectedQuestion, error) {
	f.mu.Lock()
	call := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if err, ok := f.failCalls[call]; ok {
		return nil, nil, err
	}
	if f.produce != nil {
		questions, rejected := f.produce(call, prompt)
		return questions, rejected, nil
	}

	questions := make([]domain.Question, 0, prompt.Count)
	for i := 0; i < prompt.Count; i++ {
		questions = append(questions, domain.Question{
			ID:           fmt.Sprintf("q-%d-%d", call, i),
			Stem:         fmt.Sprintf("Question %d from call %d?", i, call),
			Options:      []string{"A", "B", "C", "D"},
			CorrectIndex: i % 4,
			Difficulty:   prompt.Difficulty,
			Subject:      prompt.Subject,
			Language:     prompt.Language,
			Marks:        1,
			SourceChunks: prompt.SourceChunks,
		})
	}
	return questions, nil, nil
}

func (f *generatorFake) GenerateText(_ context.Context, _, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, domain.GenerationPrompt{Instructions: prompt})
	f.mu.Unlock()
	if f.textErr != nil {
		return "", f.textErr
	}
	if f.text == "" {
		return "generated answer", nil
	}
	return f.text, nil
}

type sinkFake struct {
	documentID string
	result     *domain.RunResult
	err        error
}

func (f *sinkFake) StoreQuestions(_ context.Context, documentID string, result *domain.RunResult) error {
	if f.err != nil {
		return f.err
	}
	f.documentID = documentID
	f.result = result
	return nil
}

type storageFake struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func newStorageFake() *storageFake {
	return &storageFake{saved: make(map[string][]byte)}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	content, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[key] = content
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.saved[key]
	if !ok {
		return nil, fmt.Errorf("missing key %s", key)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishDocumentIngested(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *queueFake) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return nil
}

func docChunks(docID string, n int) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, n)
	for i := 0; i < n; i++ {
		chunks = append(chunks, domain.Chunk{
			DocumentID: docID,
			Seq:        i,
			Page:       i/2 + 1,
			Text:       fmt.Sprintf("Chunk %d carries enough physics content about energy topic %d.", i, i),
			Language:   domain.LanguageEnglish,
			Subject:    domain.SubjectPhysics,
		})
	}
	return chunks
}
