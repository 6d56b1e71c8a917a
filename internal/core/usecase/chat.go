package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/smartprep/mcq-engine/internal/core/domain"
	"github.com/smartprep/mcq-engine/internal/core/ports"
)

const (
	chatTopK          = 5
	chatHistoryWindow = 6
)

// Chat answers free-form queries against indexed documents by retrieving
// the closest chunks and grounding a generation call in them. When nothing
// clears the similarity floor it degrades to a general-knowledge answer
// flagged as context-free.
type Chat struct {
	embedder  ports.Embedder
	index     ports.VectorIndex
	generator ports.GenerationService
	floor     float64
	logger    *slog.Logger
}

func NewChat(
	embedder ports.Embedder,
	index ports.VectorIndex,
	generator ports.GenerationService,
	floor float64,
	logger *slog.Logger,
) *Chat {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chat{embedder: embedder, index: index, generator: generator, floor: floor, logger: logger}
}

func (c *Chat) Answer(ctx context.Context, query, collectionID string, history []domain.ChatTurn) (*domain.ChatResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chat", fmt.Errorf("empty query"))
	}

	queryVector, err := c.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed chat query", err)
	}

	hits, err := c.index.Query(ctx, collectionID, queryVector, chatTopK, domain.SearchFilter{})
	if err != nil {
		return nil, err
	}
	sources := make([]domain.ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		if hit.Score >= c.floor {
			sources = append(sources, hit)
		}
	}

	prompt := c.buildPrompt(query, sources, history)
	text, err := c.generator.GenerateText(ctx, chatSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	return &domain.ChatResponse{
		Text:         text,
		Sources:      sources,
		ContextFound: len(sources) > 0,
	}, nil
}

const chatSystemPrompt = "You are a helpful study assistant. Answer concisely and " +
	"stay grounded in the provided material when it is present."

func (c *Chat) buildPrompt(query string, sources []domain.ScoredChunk, history []domain.ChatTurn) string {
	var sb strings.Builder

	// Bounded history window, oldest turns dropped first.
	if len(history) > chatHistoryWindow {
		history = history[len(history)-chatHistoryWindow:]
	}
	if len(history) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, turn := range history {
			fmt.Fprintf(&sb, "%s: %s\n", turn.Role, turn.Content)
		}
		sb.WriteString("\n")
	}

	if len(sources) > 0 {
		sb.WriteString("Material:\n")
		for i, source := range sources {
			fmt.Fprintf(&sb, "[%d] (page %d) %s\n", i+1, source.Chunk.Page, source.Chunk.Text)
		}
		sb.WriteString("\nAnswer the question using the material above. Cite sections as [n] where relevant.\n")
	} else {
		sb.WriteString("No relevant material was found in the indexed documents. " +
			"Answer from general knowledge and start your reply by noting that the answer is not based on the uploaded documents.\n")
	}

	fmt.Fprintf(&sb, "\nQuestion: %s", query)
	return sb.String()
}
