// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

// Package api provides the HTTP client for the chat completion backend.
package api

import "errors"

// ClientError represents an error from the chat backend client.
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
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeHTTP
	ErrTypeDecode
	ErrTypeCancelled
	ErrTypeTooManyContinuations
)

// Sentinel errors for easy checking.
var (
	ErrUnreachable          = &ClientError{Type: ErrTypeConnection, Message: "backend is unreachable"}
	ErrTimeout              = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrCancelled            = &ClientError{Type: ErrTypeCancelled, Message: "request cancelled"}
	ErrTooManyContinuations = &ClientError{Type: ErrTypeTooManyContinuations, Message: "reply still truncated after maximum continuations"}
)

// IsCancelled checks if an error is a user cancellation. Cancellation is
// a silent stop, never rendered as a failure.
func IsCancelled(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeCancelled
	}
	return errors.Is(err, ErrCancelled)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return errors.Is(err, ErrTimeout)
}

// IsUnreachable checks if an error indicates the backend could not be
// reached at all.
func IsUnreachable(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeConnection
	}
	return errors.Is(err, ErrUnreachable)
}

// IsTooManyContinuations checks if a reply hit the continuation cap while
// still truncated.
func IsTooManyContinuations(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTooManyContinuations
	}
	return errors.Is(err, ErrTooManyContinuations)
}
