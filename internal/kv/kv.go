// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package kv provides the simple string key-value persistence the chat core
// relies on.
//
// The core persists three independent keys: the serialized session list,
// the active session id, and the remaining-request counter. Store is the
// full contract; implementations are a file-per-key store (default), a
// SQLite-backed store, and an in-memory store for tests.
//
// Persistence is best-effort: callers log and swallow Set errors, keeping
// in-memory state authoritative for the rest of the process lifetime.
package kv

import "sync"

// Store is the persistence collaborator contract.
type Store interface {
	// GetString returns the stored value and whether the key was present.
	GetString(key string) (string, bool)
	// SetString stores value under key, overwriting any previous value.
	SetString(key, value string) error
}

// =============================================================================
// IN-MEMORY STORE
// =============================================================================

// Memory is an in-memory Store used in tests and as a last-resort fallback
// when no durable backend can be opened.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// GetString returns the stored value and whether the key was present.
func (m *Memory) GetString(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

// SetString stores value under key.
func (m *Memory) SetString(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
