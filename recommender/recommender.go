// Package recommender talks to the layout recommendation function and
// provides a local engagement heuristic for deployments without one.
package recommender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Request is the input of the recommendation function.
type Request struct {
	Engagement    map[string]int `json:"engagementData"`
	CurrentLayout string         `json:"currentLayoutDescription"`
}

// Response is the output of the recommendation function. Layout is not
// guaranteed to be a valid permutation; callers validate it.
type Response struct {
	Success   bool     `json:"success"`
	Layout    []string `json:"layout,omitempty"`
	Reasoning string   `json:"reasoning,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 64 << 10

// Client calls a remote recommendation function over HTTP.
type Client struct {
	url    string
	apiKey string
	http   *http.Client
}

// NewClient creates a client for url.
func NewClient(url, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		url:    url,
		apiKey: apiKey,
		http:   &http.Client{Timeout: timeout},
	}
}

// Recommend posts req and decodes the function's answer. Transport errors
// and non-2xx statuses are returned as errors; a well-formed failure answer
// is returned with Success=false.
func (c *Client) Recommend(ctx context.Context, req Request) (Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("recommendation request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, fmt.Errorf("recommendation function returned %d", resp.StatusCode)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return Response{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}
