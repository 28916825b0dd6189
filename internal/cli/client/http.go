package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultServerURL = "http://localhost:8080"

// Client is a thin HTTP client for the docrag API.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultServerURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
}

// Health checks that the server process is up.
func (c *Client) Health(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("unexpected health status %q", resp.Status)
	}
	return nil
}

// Ingest sends document text for processing and returns the number of
// passages stored.
func (c *Client) Ingest(ctx context.Context, text string) (int, error) {
	req := map[string]string{"text": text}
	var resp struct {
		Message string `json:"message"`
		Count   int    `json:"count"`
	}
	if err := c.do(ctx, http.MethodPost, "/process-document", req, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// QueryResult is a generated answer plus its source passages.
type QueryResult struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// Query asks a question against the ingested corpus.
func (c *Client) Query(ctx context.Context, query string) (*QueryResult, error) {
	req := map[string]string{"query": query}
	var resp QueryResult
	if err := c.do(ctx, http.MethodPost, "/query-document", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeAPIError(resp *http.Response) error {
	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if body.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Error)
		}
		if body.Detail != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Detail)
		}
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
