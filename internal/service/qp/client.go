package qp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client talks to the aggregation API. Every call carries the API_TOKEN
// header; request and response bodies are JSON.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// entityResponse is the envelope returned by the entity create/update/read
// endpoints: {"data": {...}}.
type entityResponse struct {
	Data json.RawMessage `json:"data"`
}

type entityData struct {
	ID int64 `json:"id"`
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("API_TOKEN", c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("Calling qp api",
		zap.String("method", method),
		zap.String("path", path))

	resp, err := c.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
			return nil, &APIError{Message: "Service is unavailable. Please try again later."}
		}
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: remoteMessage(respBody)}
	}

	return respBody, nil
}

// remoteMessage extracts the error message from an API error body, falling
// back to the raw body.
func remoteMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	return string(body)
}

// Send issues a create or update call and returns the server-assigned id.
func (c *Client) Send(ctx context.Context, method, path string, payload any) (int64, error) {
	respBody, err := c.do(ctx, method, path, payload)
	if err != nil {
		return 0, err
	}

	var envelope entityResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	var data entityData
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return 0, fmt.Errorf("failed to decode response data: %w", err)
		}
	}

	return data.ID, nil
}

// Fetch reads an entity and returns the raw data object for identifier
// inspection.
func (c *Client) Fetch(ctx context.Context, path string) (map[string]any, error) {
	respBody, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return envelope.Data, nil
}
