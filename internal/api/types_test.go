// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatChunkUnmarshal(t *testing.T) {
	raw := `{
		"id": "msg-42",
		"role": "assistant",
		"text": "Hello, world",
		"conversationId": "conv-7",
		"parentMessageId": "msg-41",
		"detail": {
			"model": "gpt-3.5-turbo",
			"choices": [{"index": 0, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
		}
	}`

	var chunk ChatChunk
	require.NoError(t, json.Unmarshal([]byte(raw), &chunk))

	assert.Equal(t, "msg-42", chunk.ID)
	assert.Equal(t, "conv-7", chunk.ConversationID)
	assert.Equal(t, "Hello, world", chunk.Text)
	assert.Equal(t, "stop", chunk.FinishReason())
	assert.False(t, chunk.Truncated())
	require.NotNil(t, chunk.Detail.Usage)
	assert.Equal(t, 5, chunk.Detail.Usage.CompletionTokens)
}

func TestChatChunkTruncated(t *testing.T) {
	tests := []struct {
		name   string
		chunk  ChatChunk
		reason string
		want   bool
	}{
		{
			name:  "no detail",
			chunk: ChatChunk{ID: "a"},
		},
		{
			name:  "empty choices",
			chunk: ChatChunk{Detail: &ChunkDetail{}},
		},
		{
			name: "finish stop",
			chunk: ChatChunk{Detail: &ChunkDetail{
				Choices: []ChunkChoice{{FinishReason: "stop"}},
			}},
			reason: "stop",
		},
		{
			name: "finish length",
			chunk: ChatChunk{Detail: &ChunkDetail{
				Choices: []ChunkChoice{{FinishReason: "length"}},
			}},
			reason: "length",
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.reason, tt.chunk.FinishReason())
			assert.Equal(t, tt.want, tt.chunk.Truncated())
		})
	}
}

func TestChatRequestOmitsEmptyOptions(t *testing.T) {
	data, err := json.Marshal(ChatRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "options")
	assert.NotContains(t, string(data), "systemMessage")

	data, err = json.Marshal(ChatRequest{
		Prompt: "",
		Options: &RequestOptions{
			ConversationID:  "conv-1",
			ParentMessageID: "msg-9",
		},
	})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"conversationId":"conv-1"`)
	assert.Contains(t, string(data), `"parentMessageId":"msg-9"`)
}

func TestErrorPredicates(t *testing.T) {
	wrapped := fmt.Errorf("request failed: %w", ErrCancelled)
	assert.True(t, IsCancelled(wrapped))
	assert.False(t, IsCancelled(ErrTimeout))

	assert.True(t, IsCancelled(&ClientError{Type: ErrTypeCancelled, Message: "stopped", Cause: context.Canceled}))
	assert.True(t, IsTimeout(&ClientError{Type: ErrTypeTimeout, Message: "deadline"}))
	assert.True(t, IsUnreachable(ErrUnreachable))
	assert.True(t, IsTooManyContinuations(ErrTooManyContinuations))
	assert.False(t, IsTooManyContinuations(ErrUnreachable))
}

func TestClientErrorMessage(t *testing.T) {
	bare := &ClientError{Type: ErrTypeHTTP, Message: "bad status"}
	assert.Equal(t, "bad status", bare.Error())

	caused := &ClientError{Type: ErrTypeDecode, Message: "decode failed", Cause: fmt.Errorf("unexpected EOF")}
	assert.Equal(t, "decode failed: unexpected EOF", caused.Error())
}
