package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartprep/mcq-engine/internal/core/domain"
)

// pointNamespace makes point IDs a pure function of the chunk id, so
// re-upserting a chunk overwrites its point instead of accumulating
// duplicates.
var pointNamespace = uuid.MustParse("9a7cbe2e-64f0-4f6a-9d01-5a4f3a8a21c7")

// Client talks to a Qdrant instance over its HTTP API. Every logical
// collection of the engine maps to one Qdrant collection, created lazily on
// first upsert.
type Client struct {
	baseURL    string
	httpClient *http.Client

	ensureMu sync.Mutex
	ensured  map[string]int
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		ensured:    make(map[string]int),
	}
}

func (c *Client) Upsert(ctx context.Context, collectionID string, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := c.ensureCollection(ctx, collectionID, len(entries[0].Vector)); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(entries))
	for _, entry := range entries {
		points = append(points, point{
			ID:     uuid.NewSHA1(pointNamespace, []byte(entry.ChunkID)).String(),
			Vector: entry.Vector,
			Payload: map[string]any{
				"collection":  collectionID,
				"chunk_id":    entry.ChunkID,
				"doc_id":      entry.Chunk.DocumentID,
				"seq":         entry.Chunk.Seq,
				"page":        entry.Chunk.Page,
				"text":        entry.Chunk.Text,
				"language":    string(entry.Chunk.Language),
				"subject":     string(entry.Chunk.Subject),
				"embed_model": entry.EmbedModel,
			},
		})
	}

	body, err := json.Marshal(map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("marshal upsert body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, collectionID)
	if err := c.do(ctx, http.MethodPut, url, body, nil); err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

func (c *Client) Query(
	ctx context.Context,
	collectionID string,
	queryVector []float32,
	topK int,
	filter domain.SearchFilter,
) ([]domain.ScoredChunk, error) {
	if topK <= 0 || len(queryVector) == 0 {
		return nil, nil
	}

	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        topK,
		"with_payload": true,
	}
	if qf := buildFilter(filter); qf != nil {
		reqBody["filter"] = qf
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, collectionID)
	if err := c.do(ctx, http.MethodPost, url, body, &searchResp); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	out := make([]domain.ScoredChunk, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		if stamped := getStringPayload(r.Payload, "collection"); stamped != "" && stamped != collectionID {
			return nil, domain.WrapError(
				domain.ErrIndexIsolation,
				"qdrant search",
				fmt.Errorf("point stamped for collection %s, queried %s", stamped, collectionID),
			)
		}
		out = append(out, domain.ScoredChunk{
			Chunk: domain.Chunk{
				DocumentID: getStringPayload(r.Payload, "doc_id"),
				Seq:        getIntPayload(r.Payload, "seq"),
				Page:       getIntPayload(r.Payload, "page"),
				Text:       getStringPayload(r.Payload, "text"),
				Language:   domain.Language(getStringPayload(r.Payload, "language")),
				Subject:    domain.Subject(getStringPayload(r.Payload, "subject")),
			},
			Score: r.Score,
		})
	}

	// Qdrant orders by score only; equal scores get a stable order here.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Chunk.Seq < out[j].Chunk.Seq
	})
	return out, nil
}

// Delete drops the whole collection. A missing collection is a no-op so
// ephemeral collections can be cleaned up unconditionally.
func (c *Client) Delete(ctx context.Context, collectionID string) error {
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, collectionID)
	if err := c.do(ctx, http.MethodDelete, url, nil, nil); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("qdrant delete collection: %w", err)
	}
	c.ensureMu.Lock()
	delete(c.ensured, collectionID)
	c.ensureMu.Unlock()
	return nil
}

func (c *Client) ensureCollection(ctx context.Context, collectionID string, vectorSize int) error {
	c.ensureMu.Lock()
	if size, ok := c.ensured[collectionID]; ok && size == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	body, err := json.Marshal(map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	})
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, collectionID)
	err = c.do(ctx, http.MethodPut, url, body, nil)
	// 409 means the collection already exists (depends on version/config).
	if err != nil && !isConflict(err) {
		return fmt.Errorf("qdrant ensure collection: %w", err)
	}

	c.ensureMu.Lock()
	c.ensured[collectionID] = vectorSize
	c.ensureMu.Unlock()
	return nil
}

type statusError struct {
	code   int
	status string
	body   string
}

func (e *statusError) Error() string {
	if e.body != "" {
		return fmt.Sprintf("status %s: %s", e.status, e.body)
	}
	return fmt.Sprintf("status %s", e.status)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &statusError{
			code:   resp.StatusCode,
			status: resp.Status,
			body:   strings.TrimSpace(string(msg)),
		}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func isNotFound(err error) bool {
	var statusErr *statusError
	return errors.As(err, &statusErr) && statusErr.code == http.StatusNotFound
}

func isConflict(err error) bool {
	var statusErr *statusError
	return errors.As(err, &statusErr) && statusErr.code == http.StatusConflict
}

func buildFilter(filter domain.SearchFilter) map[string]any {
	var must []map[string]any
	if filter.Subject != "" && filter.Subject != domain.SubjectAuto {
		must = append(must, map[string]any{
			"key":   "subject",
			"match": map[string]any{"value": string(filter.Subject)},
		})
	}
	if pages := filter.Pages.Pages(); len(pages) > 0 {
		must = append(must, map[string]any{
			"key":   "page",
			"match": map[string]any{"any": pages},
		})
	}
	if len(must) == 0 {
		return nil
	}
	return map[string]any{"must": must}
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getIntPayload(payload map[string]any, key string) int {
	v, ok := payload[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
