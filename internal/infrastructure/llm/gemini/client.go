package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/smartprep/mcq-engine/internal/core/domain"
	"github.com/smartprep/mcq-engine/internal/infrastructure/resilience"
)

// Client talks to a Gemini-compatible gateway exposing generation and
// embedding endpoints. The models are black boxes; this client owns rate
// limiting, retries, and defensive response handling.
type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

type Options struct {
	RequestsPerSecond float64
	Burst             int
	Executor          *resilience.Executor
}

func New(baseURL, genModel, embedModel string, options Options) *Client {
	rps := options.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := options.Burst
	if burst <= 0 {
		burst = 4
	}
	executor := options.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		executor:   executor,
	}
}

// Generator implements ports.GenerationService.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) GenerateQuestions(
	ctx context.Context,
	prompt domain.GenerationPrompt,
) ([]domain.Question, []domain.RejectedQuestion, error) {
	raw, err := g.client.generate(ctx, prompt.System, renderUserPrompt(prompt))
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrGenerationCall, "generate questions", err)
	}
	questions, rejected := parseQuestionBlocks(raw, prompt)
	return questions, rejected, nil
}

func (g *Generator) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	raw, err := g.client.generate(ctx, system, prompt)
	if err != nil {
		return "", domain.WrapError(domain.ErrGenerationCall, "generate text", err)
	}
	return raw, nil
}

func renderUserPrompt(prompt domain.GenerationPrompt) string {
	var b strings.Builder
	b.WriteString(prompt.Instructions)
	if prompt.Context != "" {
		b.WriteString("\n\nContext:\n")
		b.WriteString(prompt.Context)
	}
	return b.String()
}

func (c *Client) generate(ctx context.Context, system, prompt string) (string, error) {
	request := map[string]any{
		"model":  c.genModel,
		"system": system,
		"prompt": prompt,
	}

	var response struct {
		Text string `json:"text"`
	}
	err := c.executor.Execute(ctx, "llm_generate", func(callCtx context.Context) error {
		if err := c.limiter.Wait(callCtx); err != nil {
			return err
		}
		return c.postJSON(callCtx, "/v1/generate", request, &response, "generate")
	}, classifyServiceError)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Text), nil
}

// Embedder implements the remote side of ports.Embedder. The content-hash
// cache wraps it (see infrastructure/embedding).
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) ModelID() string {
	return e.client.embedModel
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	err := e.client.executor.Execute(ctx, "llm_embed", func(callCtx context.Context) error {
		if err := e.client.limiter.Wait(callCtx); err != nil {
			return err
		}
		return e.client.postJSON(callCtx, "/v1/embed", request, &response, "embed")
	}, classifyServiceError)
	if err != nil {
		return nil, err
	}
	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embeddings/input mismatch: %d/%d", len(response.Embeddings), len(texts))
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}
