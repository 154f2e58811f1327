// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

package api

// RequestOptions carries the backend thread identifiers. Sending them
// resumes an existing server-side conversation; omitting them starts a
// fresh one.
type RequestOptions struct {
	ConversationID  string `json:"conversationId,omitempty"`
	ParentMessageID string `json:"parentMessageId,omitempty"`
}

// ChatRequest is the request body for the /chat-process endpoint.
type ChatRequest struct {
	Prompt        string          `json:"prompt"`
	Options       *RequestOptions `json:"options,omitempty"`
	SystemMessage string          `json:"systemMessage,omitempty"`
	Temperature   float64         `json:"temperature,omitempty"`
	TopP          float64         `json:"top_p,omitempty"`
}

// ChatChunk is one newline-delimited JSON object of the streamed reply.
// Text is a cumulative snapshot of the whole reply so far, not a delta:
// each chunk replaces the previous one.
type ChatChunk struct {
	ID              string       `json:"id"`
	Role            string       `json:"role,omitempty"`
	Text            string       `json:"text"`
	ConversationID  string       `json:"conversationId,omitempty"`
	ParentMessageID string       `json:"parentMessageId,omitempty"`
	Detail          *ChunkDetail `json:"detail,omitempty"`
}

// ChunkDetail mirrors the upstream completion metadata attached to a chunk.
type ChunkDetail struct {
	ID      string        `json:"id,omitempty"`
	Object  string        `json:"object,omitempty"`
	Created int64         `json:"created,omitempty"`
	Model   string        `json:"model,omitempty"`
	Choices []ChunkChoice `json:"choices,omitempty"`
	Usage   *ChunkUsage   `json:"usage,omitempty"`
}

// ChunkChoice is one completion choice within a chunk's detail.
type ChunkChoice struct {
	Index        int    `json:"index"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// ChunkUsage holds token accounting when the backend reports it.
type ChunkUsage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// FinishReason returns the finish reason of the first choice, or "".
func (c *ChatChunk) FinishReason() string {
	if c.Detail == nil || len(c.Detail.Choices) == 0 {
		return ""
	}
	return c.Detail.Choices[0].FinishReason
}

// Truncated reports whether the backend cut the reply short for length.
// A truncated reply is resumed by re-issuing the request with this
// chunk's thread identifiers.
func (c *ChatChunk) Truncated() bool {
	return c.FinishReason() == "length"
}

// Reply is the final result of a streamed chat request, after any
// continuation rounds.
type Reply struct {
	// Text is the complete reply text across all rounds.
	Text string

	// Thread identifiers of the final chunk.
	ID              string
	ConversationID  string
	ParentMessageID string

	// Rounds is the number of requests issued, 1 plus continuations.
	Rounds int

	// Usage from the final chunk, when reported.
	PromptTokens     int
	CompletionTokens int
}

// backendError is the JSON error body some backends return on non-200.
type backendError struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}
