// Package sink delivers converted documents to a downstream renderer over
// HTTP.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgallion1/mdstruct/internal/doctree"
)

// Client communicates with the renderer HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Delivery is the body for PUT /documents/{id}.
type Delivery struct {
	Filename    string          `json:"filename"`
	Title       string          `json:"title"`
	ContentHash string          `json:"content_hash"`
	Meta        map[string]any  `json:"meta,omitempty"`
	Tree        *doctree.Node   `json:"tree"`
	Chunks      []doctree.Chunk `json:"chunks"`
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// PutDocument stores or replaces a document downstream.
func (c *Client) PutDocument(ctx context.Context, docID string, d Delivery) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal delivery: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, c.documentURL(docID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return statusError("put document "+docID, resp)
	}
	return nil
}

// DeleteDocument removes a document downstream. A missing document is not
// an error.
func (c *Client) DeleteDocument(ctx context.Context, docID string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.documentURL(docID), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	}
	return statusError("delete document "+docID, resp)
}

func (c *Client) documentURL(docID string) string {
	return c.baseURL + "/documents/" + url.PathEscape(docID)
}

// statusError reads a bounded error body. 429 and 5xx come back as
// *RetryableError.
func statusError(op string, resp *http.Response) error {
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, string(respBody))
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
