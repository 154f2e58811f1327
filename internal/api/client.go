// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL of the chat backend (default: http://127.0.0.1:3002).
	// Explicit IPv4 avoids IPv6 resolution issues on Windows when the
	// backend runs locally.
	BaseURL string

	// Timeout for non-streaming requests (default: 30s). Streaming
	// requests have no client timeout; they stop via context.
	Timeout time.Duration

	// APIKey is sent as a bearer token when set.
	APIKey string

	// MaxContinuations bounds how many times a truncated reply is
	// resumed before giving up (default: 3).
	MaxContinuations int

	// ContinuationInterval is the minimum delay between continuation
	// rounds (default: 500ms).
	ContinuationInterval time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:              "http://127.0.0.1:3002",
		Timeout:              30 * time.Second,
		MaxContinuations:     3,
		ContinuationInterval: 500 * time.Millisecond,
	}
}

// Client talks to the chat completion backend. It is safe for concurrent
// use, though the UI issues at most one streaming request at a time.
//
// Example:
//
//	client := api.NewClient()
//	reply, err := client.ChatStream(ctx, req, func(chunk api.ChatChunk) {
//	    render(chunk.Text) // cumulative snapshot, last chunk wins
//	})
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new backend client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new backend client with custom
// configuration. Zero values are filled with defaults.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:3002"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxContinuations == 0 {
		config.MaxContinuations = 3
	}
	if config.ContinuationInterval == 0 {
		config.ContinuationInterval = 500 * time.Millisecond
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Every(config.ContinuationInterval), 1),
	}
}

// Ping verifies that the backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL, nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ErrUnreachable
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return &ClientError{
			Type:    ErrTypeHTTP,
			Message: "unexpected status from backend: " + resp.Status,
		}
	}

	return nil
}

// ChatStream sends a chat request and streams the reply. The callback
// receives each decoded chunk in arrival order; chunk.Text is always the
// whole reply so far, so the caller renders by replacement.
//
// When the backend truncates the reply for length, ChatStream re-issues
// the request with the final chunk's thread identifiers and an empty
// prompt, prefixing the text already received, until the reply completes
// or MaxContinuations is reached. The callback keeps seeing cumulative
// snapshots across rounds.
//
// Cancelling ctx aborts the stream and returns a cancellation error
// distinguishable via IsCancelled; text already delivered remains valid.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, callback ChunkCallback) (*Reply, error) {
	reply := &Reply{}
	prefix := ""

	for round := 0; ; round++ {
		reply.Rounds = round + 1

		last, err := c.streamOnce(ctx, req, prefix, callback)
		if err != nil {
			return reply, err
		}
		if last == nil {
			return reply, &ClientError{Type: ErrTypeDecode, Message: "backend returned no chunks"}
		}

		reply.Text = prefix + last.Text
		reply.ID = last.ID
		reply.ConversationID = last.ConversationID
		reply.ParentMessageID = last.ParentMessageID
		if last.Detail != nil && last.Detail.Usage != nil {
			reply.PromptTokens = last.Detail.Usage.PromptTokens
			reply.CompletionTokens = last.Detail.Usage.CompletionTokens
		}

		if !last.Truncated() {
			return reply, nil
		}

		if round >= c.config.MaxContinuations {
			return reply, &ClientError{
				Type:    ErrTypeTooManyContinuations,
				Message: "reply still truncated after " + strconv.Itoa(c.config.MaxContinuations) + " continuations",
			}
		}

		// Resume the same reply: thread onto the truncated chunk and
		// send no new prompt.
		prefix = reply.Text
		req.Prompt = ""
		req.Options = &RequestOptions{
			ConversationID:  last.ConversationID,
			ParentMessageID: last.ID,
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return reply, c.wrapTransportError(err)
		}
	}
}

// streamOnce issues one request round and returns the last chunk seen.
// The callback receives chunks with the accumulated prefix from earlier
// rounds prepended.
func (c *Client) streamOnce(ctx context.Context, req ChatRequest, prefix string, callback ChunkCallback) (*ChatChunk, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeDecode, Message: "failed to marshal request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat-process", bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	// The streaming client carries no timeout; lifetime is governed by
	// the request context.
	streamClient := &http.Client{}

	resp, err := streamClient.Do(httpReq)
	if err != nil {
		return nil, c.wrapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.readErrorBody(resp)
	}

	reader := NewStreamReader(resp.Body)
	err = reader.Process(ctx, func(chunk ChatChunk) {
		if callback != nil {
			chunk.Text = prefix + chunk.Text
			callback(chunk)
		}
	})
	if err != nil {
		return reader.Last(), c.wrapTransportError(err)
	}

	return reader.Last(), nil
}

// wrapTransportError maps low-level failures onto the client error
// taxonomy. Context cancellation stays distinguishable from genuine
// failures.
func (c *Client) wrapTransportError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return ErrCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	default:
		return &ClientError{Type: ErrTypeConnection, Message: "backend request failed", Cause: err}
	}
}

// readErrorBody decodes a non-200 response into a client error.
func (c *Client) readErrorBody(resp *http.Response) error {
	var backendErr backendError
	if err := json.NewDecoder(resp.Body).Decode(&backendErr); err == nil && backendErr.Message != "" {
		return &ClientError{
			Type:    ErrTypeHTTP,
			Message: backendErr.Message,
		}
	}
	return &ClientError{
		Type:    ErrTypeHTTP,
		Message: "chat request failed: " + resp.Status,
	}
}

// GetConfig returns the client configuration.
func (c *Client) GetConfig() *ClientConfig {
	return c.config
}
