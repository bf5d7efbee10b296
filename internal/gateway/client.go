// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway provides the HTTP client for communicating with the mesh gateway API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the gateway client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotRunning
	ErrTypeTimeout
	ErrTypeConnection
	ErrTypeInvalidResponse
	ErrTypeRejected
)

// Sentinel errors for easy checking.
var (
	ErrNotRunning = &ClientError{Type: ErrTypeNotRunning, Message: "mesh gateway is not running"}
	ErrTimeout    = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrRejected   = &ClientError{Type: ErrTypeRejected, Message: "request rejected by gateway"}
)

// IsNotRunning checks if an error indicates the gateway is unreachable.
func IsNotRunning(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeNotRunning
	}
	return errors.Is(err, ErrNotRunning)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return errors.Is(err, ErrTimeout)
}

// IsCancelled reports whether an error is a context cancellation.
// Cancellation is not a failure and must never surface as a user-visible error.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the gateway client.
type ClientConfig struct {
	// BaseURL is the mesh gateway base URL (default: http://127.0.0.1:8080)
	// Note: Uses explicit IPv4 address instead of localhost to avoid IPv6 resolution issues on Windows
	BaseURL string

	// Timeout for non-streaming requests (default: 30s).
	// Streaming requests have no client timeout; the context governs them.
	Timeout time.Duration

	// DefaultModel to use for direct queries if none specified
	DefaultModel string

	// PollRate limits replies-endpoint requests per second (default: 4)
	PollRate float64
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:      "http://127.0.0.1:8080",
		Timeout:      30 * time.Second,
		DefaultModel: "default",
		PollRate:     4,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the mesh gateway API.
// It provides direct queries, fan-out submission, reply polling,
// summarization, and peer listing.
//
// The Client is thread-safe for concurrent use.
type Client struct {
	config      *ClientConfig
	httpClient  *http.Client
	pollLimiter *rate.Limiter
}

// NewClient creates a new gateway client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new gateway client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:8080"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.PollRate <= 0 {
		config.PollRate = 4
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		pollLimiter: rate.NewLimiter(rate.Limit(config.PollRate), 1),
	}
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckRunning verifies that the gateway is reachable.
func (c *Client) CheckRunning(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/health", nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ErrNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ClientError{
			Type:    ErrTypeConnection,
			Message: "unexpected status from gateway: " + resp.Status,
		}
	}

	return nil
}

// =============================================================================
// PEER LISTING
// =============================================================================

// ListPeers retrieves the online/offline peer names used to populate the
// mention picker. Callers should degrade to empty candidate lists on error
// rather than surfacing an error state.
func (c *Client) ListPeers(ctx context.Context) (*PeerList, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/peers", nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ErrNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ClientError{
			Type:    ErrTypeInvalidResponse,
			Message: "failed to list peers: " + resp.Status,
		}
	}

	var result PeerList
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	return &result, nil
}

// =============================================================================
// DIRECT QUERY (STREAMING)
// =============================================================================

// Query sends a direct query and streams the response through the decoder,
// calling the callback for each chunk with the full accumulated text.
// Returns when the stream completes or the context is cancelled.
func (c *Client) Query(ctx context.Context, message string, callback ChunkCallback) error {
	reqBody := QueryRequest{
		Message: message,
		Model:   c.config.DefaultModel,
	}
	return c.stream(ctx, "/api/query", reqBody, callback)
}

// =============================================================================
// FAN-OUT
// =============================================================================

// SubmitFanout submits a message addressed to the given peers. The gateway
// acknowledges immediately with a prompt ID; it does not wait for replies.
func (c *Client) SubmitFanout(ctx context.Context, message string, peers []string) (string, error) {
	reqBody := FanoutRequest{Message: message, Peers: peers}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/fanout", bytes.NewReader(body))
	if err != nil {
		return "", &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", ErrNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.decodeError(resp, "fan-out submission failed")
	}

	var result FanoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	if result.Status != "success" || result.PromptID == "" {
		return "", ErrRejected
	}

	return result.PromptID, nil
}

// PollReplies requests the current reply set for a prompt ID. Only peers
// that have replied appear; the orchestrator synthesizes pending records
// for the rest. Requests are rate-limited to avoid hammering the gateway
// during tight polling loops.
func (c *Client) PollReplies(ctx context.Context, promptID string) ([]PeerReply, error) {
	if err := c.pollLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/replies/"+promptID, nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ErrNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.decodeError(resp, "failed to poll replies")
	}

	var result RepliesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	return result.Responses, nil
}

// =============================================================================
// SUMMARIZATION (STREAMING)
// =============================================================================

// Summarize submits the successfully-responded subset of peer replies and
// streams the summary through the decoder, identical in shape to Query.
func (c *Client) Summarize(ctx context.Context, responses []SummaryInput, callback ChunkCallback) error {
	return c.stream(ctx, "/api/summarize", SummarizeRequest{Responses: responses}, callback)
}

// =============================================================================
// CONVERSATION RESET
// =============================================================================

// ClearConversation performs a stateless reset on the gateway. On success
// the caller discards all query handles.
func (c *Client) ClearConversation(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/clear", nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ErrNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.decodeError(resp, "failed to clear conversation")
	}

	return nil
}

// =============================================================================
// STREAMING TRANSPORT
// =============================================================================

// stream POSTs a JSON body and decodes the NDJSON response through a
// StreamDecoder. A client without timeout is used; the context enforces
// the wall clock so a hung connection cannot block the UI indefinitely.
func (c *Client) stream(ctx context.Context, path string, reqBody any, callback ChunkCallback) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	streamClient := &http.Client{}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := streamClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ErrNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.decodeError(resp, "stream request failed")
	}

	decoder := NewStreamDecoder(resp.Body)
	return decoder.Decode(ctx, callback)
}

// decodeError extracts the gateway's error payload from a non-2xx response.
func (c *Client) decodeError(resp *http.Response, fallback string) error {
	var gwErr GatewayError
	if err := json.NewDecoder(resp.Body).Decode(&gwErr); err == nil && gwErr.Error != "" {
		return &ClientError{
			Type:    ErrTypeInvalidResponse,
			Message: gwErr.Error,
		}
	}
	return &ClientError{
		Type:    ErrTypeInvalidResponse,
		Message: fallback + ": " + resp.Status,
	}
}

// =============================================================================
// UTILITY METHODS
// =============================================================================

// GetConfig returns the client configuration.
func (c *Client) GetConfig() *ClientConfig {
	return c.config
}

// BaseURL returns the gateway base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}
