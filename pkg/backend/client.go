// Package backend is the REST client for the artifact backend service.
// The engine is the producer side of this boundary only: requests are
// fire-and-confirm, and backend unavailability never blocks local delivery.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SWORDIntel/ARTIFACTOR-sub003/models"
)

const (
	syncPath    = "/api/artifacts/sync"
	processPath = "/api/artifacts/process"
	healthPath  = "/health"
)

// Client talks to one backend base URL with an optional bearer key.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient builds a client. A zero timeout keeps the platform default.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SyncPayload is the body of sync and process requests.
type SyncPayload struct {
	URL            string            `json:"url"`
	ConversationID string            `json:"conversationId"`
	Artifacts      []models.Artifact `json:"artifacts"`
	Settings       models.Settings   `json:"settings"`
}

// Sync submits a detection result to the backend.
func (c *Client) Sync(ctx context.Context, payload SyncPayload) error {
	return c.post(ctx, syncPath, payload)
}

// Process asks the backend to run server-side processing over artifacts.
func (c *Client) Process(ctx context.Context, payload SyncPayload) error {
	return c.post(ctx, processPath, payload)
}

// Health performs the lightweight reachability probe.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("health probe failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("health probe returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload SyncPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}
	return nil
}

// authorize attaches the bearer header when an API key is configured.
func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
