// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package quota enforces the finite daily-request budget.
//
// The gate wraps a single persisted integer. Every action that will issue a
// network request (send, regenerate, edit-resubmit) must pass TryReserve
// before mutating history; a refused reservation aborts the action with the
// UI left unchanged. The counter only moves down; resetting it is an
// explicit operation, never implicit.
package quota

import (
	"log"
	"strconv"
	"sync"

	"github.com/sdetchat/sdetchat-tui/internal/kv"
)

// DefaultLimit is the number of requests granted when no counter has been
// persisted yet.
const DefaultLimit = 50

// storageKey is the independent persistence key for the counter.
const storageKey = "requestsLeft"

// Gate tracks the remaining-request counter.
type Gate struct {
	mu        sync.Mutex
	store     kv.Store
	remaining int
}

// NewGate loads the persisted counter from store, falling back to limit
// when absent or unreadable.
func NewGate(store kv.Store, limit int) *Gate {
	remaining := limit
	if raw, ok := store.GetString(storageKey); ok {
		if n, err := strconv.Atoi(raw); err == nil {
			remaining = n
		} else {
			log.Printf("quota: ignoring corrupt persisted counter %q", raw)
		}
	}
	return &Gate{store: store, remaining: remaining}
}

// TryReserve consumes one request from the budget. When the budget is
// exhausted it reports false without decrementing; callers must check
// before issuing any mutation or request.
func (g *Gate) TryReserve() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.remaining <= 0 {
		return false
	}
	g.remaining--
	g.persistLocked()
	return true
}

// Remaining returns the current budget.
func (g *Gate) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.remaining
}

// Reset restores the budget to limit and persists it.
func (g *Gate) Reset(limit int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.remaining = limit
	g.persistLocked()
}

// persistLocked writes the counter through. Persistence failures are logged
// and swallowed; the in-memory counter stays authoritative.
func (g *Gate) persistLocked() {
	if err := g.store.SetString(storageKey, strconv.Itoa(g.remaining)); err != nil {
		log.Printf("quota: failed to persist counter: %v", err)
	}
}
