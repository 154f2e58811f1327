// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestStreamReader_LastChunkWins(t *testing.T) {
	body := `{"id":"m1","text":"Hel","conversationId":"c1"}
{"id":"m1","text":"Hello","conversationId":"c1"}
{"id":"m1","text":"Hello, world","conversationId":"c1","parentMessageId":"p1","detail":{"choices":[{"index":0,"finish_reason":"stop"}]}}
`
	reader := NewStreamReader(strings.NewReader(body))

	var seen []string
	err := reader.Process(context.Background(), func(chunk ChatChunk) {
		seen = append(seen, chunk.Text)
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if len(seen) != 3 {
		t.Fatalf("chunks = %d, want 3", len(seen))
	}
	last := reader.Last()
	if last == nil || last.Text != "Hello, world" {
		t.Errorf("Last().Text = %v, want the final snapshot", last)
	}
	if last.FinishReason() != "stop" {
		t.Errorf("FinishReason = %q, want stop", last.FinishReason())
	}
	if last.Truncated() {
		t.Error("a stop finish reason is not truncation")
	}
}

func TestStreamReader_SkipsMalformedLines(t *testing.T) {
	body := `{"id":"m1","text":"a"}
not json at all
{"id":"m1","text":"ab"}
`
	reader := NewStreamReader(strings.NewReader(body))

	count := 0
	if err := reader.Process(context.Background(), func(ChatChunk) { count++ }); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if count != 2 {
		t.Errorf("chunks = %d, want 2 (malformed line skipped)", count)
	}
	if reader.Last().Text != "ab" {
		t.Errorf("Last().Text = %q, want %q", reader.Last().Text, "ab")
	}
}

func TestStreamReader_FinalLineWithoutNewline(t *testing.T) {
	body := `{"id":"m1","text":"a"}` + "\n" + `{"id":"m1","text":"ab"}`
	reader := NewStreamReader(strings.NewReader(body))

	if err := reader.Process(context.Background(), nil); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if reader.Lines() != 2 {
		t.Errorf("Lines = %d, want 2", reader.Lines())
	}
	if reader.Last().Text != "ab" {
		t.Errorf("Last().Text = %q, want the unterminated final line decoded", reader.Last().Text)
	}
}

func TestStreamReader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := NewStreamReader(strings.NewReader(`{"id":"m1","text":"a"}` + "\n"))
	err := reader.Process(ctx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// writeChunks streams NDJSON lines with flushing, like a real backend.
func writeChunks(t *testing.T, w http.ResponseWriter, chunks []ChatChunk) {
	t.Helper()
	flusher, ok := w.(http.Flusher)
	if !ok {
		t.Fatal("response writer must support flushing")
	}
	enc := json.NewEncoder(w)
	for _, chunk := range chunks {
		if err := enc.Encode(chunk); err != nil {
			t.Fatalf("encode chunk: %v", err)
		}
		flusher.Flush()
	}
}

func stopChunk(id, text, convID string) ChatChunk {
	return ChatChunk{
		ID:             id,
		Text:           text,
		ConversationID: convID,
		Detail:         &ChunkDetail{Choices: []ChunkChoice{{FinishReason: "stop"}}},
	}
}

func lengthChunk(id, text, convID string) ChatChunk {
	return ChatChunk{
		ID:             id,
		Text:           text,
		ConversationID: convID,
		Detail:         &ChunkDetail{Choices: []ChunkChoice{{FinishReason: "length"}}},
	}
}

func newTestClient(baseURL string) *Client {
	return NewClientWithConfig(&ClientConfig{
		BaseURL:              baseURL,
		MaxContinuations:     3,
		ContinuationInterval: time.Millisecond,
	})
}

func TestChatStream_Basic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat-process" {
			t.Errorf("path = %q, want /chat-process", r.URL.Path)
		}
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Prompt != "hello" {
			t.Errorf("prompt = %q, want hello", req.Prompt)
		}
		writeChunks(t, w, []ChatChunk{
			{ID: "m1", Text: "Hi"},
			{ID: "m1", Text: "Hi the"},
			stopChunk("m1", "Hi there", "c1"),
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	var snapshots []string
	reply, err := client.ChatStream(context.Background(), ChatRequest{Prompt: "hello"}, func(chunk ChatChunk) {
		snapshots = append(snapshots, chunk.Text)
	})
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}

	if reply.Text != "Hi there" {
		t.Errorf("Text = %q, want %q", reply.Text, "Hi there")
	}
	if reply.Rounds != 1 {
		t.Errorf("Rounds = %d, want 1", reply.Rounds)
	}
	if reply.ConversationID != "c1" {
		t.Errorf("ConversationID = %q, want c1", reply.ConversationID)
	}
	if len(snapshots) != 3 || snapshots[2] != "Hi there" {
		t.Errorf("snapshots = %v, want three cumulative snapshots", snapshots)
	}
}

func TestChatStream_Continuation(t *testing.T) {
	var requests []ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		requests = append(requests, req)

		switch len(requests) {
		case 1:
			writeChunks(t, w, []ChatChunk{
				{ID: "m1", Text: "first ha", ConversationID: "c1"},
				lengthChunk("m1", "first half", "c1"),
			})
		default:
			writeChunks(t, w, []ChatChunk{
				{ID: "m2", Text: " and the rest", ConversationID: "c1"},
				stopChunk("m2", " and the rest.", "c1"),
			})
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	var lastSnapshot string
	reply, err := client.ChatStream(context.Background(), ChatRequest{Prompt: "long question"}, func(chunk ChatChunk) {
		lastSnapshot = chunk.Text
	})
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}

	if len(requests) != 2 {
		t.Fatalf("requests = %d, want 2 (one continuation)", len(requests))
	}

	cont := requests[1]
	if cont.Prompt != "" {
		t.Errorf("continuation prompt = %q, want empty", cont.Prompt)
	}
	if cont.Options == nil {
		t.Fatal("continuation must carry thread identifiers")
	}
	if cont.Options.ConversationID != "c1" || cont.Options.ParentMessageID != "m1" {
		t.Errorf("continuation options = %+v, want the truncated chunk's identifiers", cont.Options)
	}

	if reply.Text != "first half and the rest." {
		t.Errorf("Text = %q, want the rounds joined", reply.Text)
	}
	if reply.Rounds != 2 {
		t.Errorf("Rounds = %d, want 2", reply.Rounds)
	}
	if lastSnapshot != "first half and the rest." {
		t.Errorf("last snapshot = %q, want the full joined text", lastSnapshot)
	}
}

func TestChatStream_ContinuationCap(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		writeChunks(t, w, []ChatChunk{lengthChunk("m1", "chunk ", "c1")})
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{
		BaseURL:              server.URL,
		MaxContinuations:     2,
		ContinuationInterval: time.Millisecond,
	})

	reply, err := client.ChatStream(context.Background(), ChatRequest{Prompt: "q"}, nil)
	if err == nil {
		t.Fatal("expected an error when the cap is hit")
	}
	if !IsTooManyContinuations(err) {
		t.Errorf("err = %v, want a continuation-cap error", err)
	}
	if requestCount != 3 {
		t.Errorf("requests = %d, want 3 (initial + 2 continuations)", requestCount)
	}
	if reply.Text == "" {
		t.Error("partial text must survive the continuation-cap error")
	}
}

func TestChatStream_CancelIsSilent(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		json.NewEncoder(w).Encode(ChatChunk{ID: "m1", Text: "partial"})
		flusher.Flush()
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	var lastText string
	_, err := client.ChatStream(ctx, ChatRequest{Prompt: "q"}, func(chunk ChatChunk) {
		lastText = chunk.Text
	})

	if !IsCancelled(err) {
		t.Fatalf("err = %v, want a cancellation", err)
	}
	if IsTimeout(err) || IsUnreachable(err) {
		t.Error("cancellation must not look like a timeout or a connection failure")
	}
	if lastText != "partial" {
		t.Errorf("lastText = %q, want the partial snapshot delivered before cancel", lastText)
	}
}

func TestChatStream_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(backendError{Status: "Fail", Message: "model overloaded"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.ChatStream(context.Background(), ChatRequest{Prompt: "q"}, nil)
	if err == nil {
		t.Fatal("expected an error for HTTP 500")
	}
	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("err = %T, want *ClientError", err)
	}
	if clientErr.Type != ErrTypeHTTP {
		t.Errorf("Type = %v, want ErrTypeHTTP", clientErr.Type)
	}
	if !strings.Contains(clientErr.Message, "model overloaded") {
		t.Errorf("Message = %q, want the backend's message", clientErr.Message)
	}
}

func TestChatStream_Unreachable(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{
		BaseURL:              "http://127.0.0.1:1",
		ContinuationInterval: time.Millisecond,
	})

	_, err := client.ChatStream(context.Background(), ChatRequest{Prompt: "q"}, nil)
	if err == nil {
		t.Fatal("expected an error for an unreachable backend")
	}
	if !IsUnreachable(err) {
		t.Errorf("err = %v, want a connection error", err)
	}
	if IsCancelled(err) {
		t.Error("a connection failure must not look like a cancellation")
	}
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}

	down := NewClientWithConfig(&ClientConfig{BaseURL: "http://127.0.0.1:1"})
	if err := down.Ping(context.Background()); !IsUnreachable(err) {
		t.Errorf("Ping to closed port = %v, want unreachable", err)
	}
}

func TestNewClientWithConfig_FillsDefaults(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{})

	cfg := client.GetConfig()
	if cfg.BaseURL == "" {
		t.Error("BaseURL default missing")
	}
	if cfg.Timeout == 0 {
		t.Error("Timeout default missing")
	}
	if cfg.MaxContinuations == 0 {
		t.Error("MaxContinuations default missing")
	}
	if cfg.ContinuationInterval == 0 {
		t.Error("ContinuationInterval default missing")
	}

	if NewClientWithConfig(nil) == nil {
		t.Error("nil config should yield a default client")
	}
}

func TestClientError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &ClientError{Type: ErrTypeConnection, Message: "failed", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
	if err.Error() != "failed: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if (&ClientError{Message: "bare"}).Error() != "bare" {
		t.Error("Error() without cause should be the message alone")
	}
}
