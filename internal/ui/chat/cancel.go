// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

package chat

import (
	"context"
	"sync"
)

// cancelManager guards the cancel function of the single in-flight
// request. It is held by pointer on the Model so Bubble Tea's value
// copies share one mutex.
type cancelManager struct {
	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

func newCancelManager() *cancelManager {
	return &cancelManager{}
}

// set installs the cancel function for a newly started request,
// cancelling any previous one first.
func (c *cancelManager) set(cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.cancelFunc = cancel
}

// cancel stops the in-flight request. Returns false when nothing was
// running.
func (c *cancelManager) cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelFunc == nil {
		return false
	}
	c.cancelFunc()
	c.cancelFunc = nil
	return true
}

// clear drops the cancel function without invoking it, once the request
// has finished on its own.
func (c *cancelManager) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelFunc = nil
}

// active reports whether a request is cancellable right now.
func (c *cancelManager) active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelFunc != nil
}

// SetCancelFunc installs the cancel function for the in-flight request.
// Called by the program root when it starts the HTTP goroutine.
func (m Model) SetCancelFunc(cancel context.CancelFunc) {
	m.cancelMgr.set(cancel)
}

// CancelStream stops the in-flight request, if any.
func (m Model) CancelStream() bool {
	return m.cancelMgr.cancel()
}
