package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/smartprep/mcq-engine/internal/core/domain"
)

// Client talks to an OCR sidecar service that rasterizes and recognizes
// document pages. The engine is a black box: content in, text plus a
// confidence indicator out.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type recognizeRequest struct {
	Content string `json:"content"`
	Page    int    `json:"page,omitempty"`
}

type recognizeResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

func (c *Client) Recognize(ctx context.Context, content []byte, page int) (string, float64, error) {
	body, err := json.Marshal(recognizeRequest{
		Content: base64.StdEncoding.EncodeToString(content),
		Page:    page,
	})
	if err != nil {
		return "", 0, fmt.Errorf("marshal ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/recognize", bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("create ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) {
			return "", 0, domain.WrapError(domain.ErrOCRUnavailable, "ocr request", err)
		}
		return "", 0, fmt.Errorf("ocr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return "", 0, domain.WrapError(domain.ErrOCRUnavailable, "ocr request", fmt.Errorf("status %s", resp.Status))
	}
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", 0, fmt.Errorf("ocr status: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var out recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", 0, fmt.Errorf("decode ocr response: %w", err)
	}
	return out.Text, out.Confidence, nil
}
