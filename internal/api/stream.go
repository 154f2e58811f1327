// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

package api

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
)

// StreamReader handles line-by-line JSON parsing of a streamed reply.
// Every line is a cumulative snapshot; the reader remembers only the
// latest one.
type StreamReader struct {
	reader *bufio.Reader
	last   *ChatChunk
	lines  int
}

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(r),
	}
}

// ChunkCallback is called for each decoded chunk, in arrival order.
type ChunkCallback func(chunk ChatChunk)

// Process reads the stream and calls the callback for each chunk.
// Blocks until the stream ends or the context is cancelled.
func (s *StreamReader) Process(ctx context.Context, callback ChunkCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			chunk, err := s.readChunk()
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}

			if chunk != nil {
				s.last = chunk
				if callback != nil {
					callback(*chunk)
				}
			}
		}
	}
}

// readChunk reads and parses a single line from the stream.
// Malformed lines are skipped. A final line without a trailing newline
// is still decoded.
func (s *StreamReader) readChunk() (*ChatChunk, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	if len(line) == 0 {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, nil
	}

	var chunk ChatChunk
	if json.Unmarshal(line, &chunk) != nil {
		// Skip malformed lines.
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, nil
	}

	s.lines++
	// On EOF the decoded final chunk is still delivered; the next read
	// returns EOF with no data.
	return &chunk, nil
}

// Last returns the most recent chunk decoded, or nil.
func (s *StreamReader) Last() *ChatChunk {
	return s.last
}

// Lines returns the number of chunks decoded.
func (s *StreamReader) Lines() int {
	return s.lines
}
