// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store owns the session list and the active-session pointer.
//
// Every mutation persists synchronously before returning: the full session
// list as JSON under one key and the active session id under another.
// Persistence failures are logged and swallowed; in-memory state stays
// authoritative for the rest of the process. A corrupt persisted list is
// discarded in favor of a fresh session rather than crashing.
//
// Invariant: the session list is never empty. The store creates a session
// on first load and re-creates one whenever the last session is deleted.
package store

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/sdetchat/sdetchat-tui/internal/kv"
	"github.com/sdetchat/sdetchat-tui/internal/model"
)

// Persistence keys. The quota counter deliberately lives under its own key
// owned by the quota package.
const (
	sessionsKey = "chatSessions"
	activeKey   = "currentSessionId"
)

// SessionStore holds all sessions, most-recently-created first.
type SessionStore struct {
	mu       sync.Mutex
	store    kv.Store
	sessions []*model.Session
	activeID string
}

// New loads persisted sessions from store, falling back to a single fresh
// session when nothing (or nothing readable) is persisted.
func New(store kv.Store) *SessionStore {
	s := &SessionStore{store: store}
	s.load()
	return s
}

func (s *SessionStore) load() {
	if raw, ok := s.store.GetString(sessionsKey); ok {
		if err := json.Unmarshal([]byte(raw), &s.sessions); err != nil {
			log.Printf("store: discarding corrupt session list: %v", err)
			s.sessions = nil
		}
	}

	if len(s.sessions) == 0 {
		s.sessions = []*model.Session{model.NewSession()}
		s.activeID = s.sessions[0].ID
		s.persistLocked()
		return
	}

	if id, ok := s.store.GetString(activeKey); ok && s.findLocked(id) != nil {
		s.activeID = id
	} else {
		s.activeID = s.sessions[0].ID
	}
}

// =============================================================================
// SESSION OPERATIONS
// =============================================================================

// Create inserts a new session with the opening greeting at the front of
// the list, persists, and returns it. The new session is not activated;
// callers switch explicitly.
func (s *SessionStore) Create() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := model.NewSession()
	s.sessions = append([]*model.Session{sess}, s.sessions...)
	s.persistLocked()
	return sess
}

// List returns the sessions most-recently-created first. The slice is a
// copy; the sessions themselves are shared.
func (s *SessionStore) List() []*model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// Get returns the session with the given id, or nil if unknown.
func (s *SessionStore) Get(id string) *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(id)
}

// Active returns the currently active session.
func (s *SessionStore) Active() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(s.activeID)
}

// ActiveID returns the active session id.
func (s *SessionStore) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// SwitchTo activates the session with the given id. Unknown ids are a
// no-op, but callers should guard since rendering assumes the active
// session exists.
func (s *SessionStore) SwitchTo(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findLocked(id) == nil {
		return
	}
	s.activeID = id
	s.persistLocked()
}

// Delete removes the session with the given id. Deleting the active
// session activates the first remaining one; deleting the last session
// creates and activates a fresh one, so the list is never left empty.
// Unknown ids are a no-op.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, sess := range s.sessions {
		if sess.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}

	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)

	if len(s.sessions) == 0 {
		fresh := model.NewSession()
		s.sessions = []*model.Session{fresh}
		s.activeID = fresh.ID
	} else if s.activeID == id {
		s.activeID = s.sessions[0].ID
	}

	s.persistLocked()
}

// =============================================================================
// HISTORY OPERATIONS (persisted)
// =============================================================================

// AppendUser appends a user message to the session and persists. Returns
// the message index; ok is false for an unknown session.
func (s *SessionStore) AppendUser(id, content string, attachments []model.Attachment) (index int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.findLocked(id)
	if sess == nil {
		return 0, false
	}
	index = sess.AppendUser(content, attachments)
	s.persistLocked()
	return index, true
}

// AppendPlaceholder appends the empty assistant placeholder and persists.
func (s *SessionStore) AppendPlaceholder(id string) (index int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.findLocked(id)
	if sess == nil {
		return 0, false
	}
	index = sess.AppendPlaceholder()
	s.persistLocked()
	return index, true
}

// UpdateStreaming overwrites the placeholder content in memory only. It is
// called once per delta during a stream cycle; durability waits for Commit
// so a hot stream does not rewrite storage per token.
func (s *SessionStore) UpdateStreaming(id string, index int, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.findLocked(id)
	if sess == nil {
		return false
	}
	return sess.SetContentAt(index, content)
}

// Commit overwrites the message content and persists. Used to finalize a
// stream cycle (accumulated text or the error marker).
func (s *SessionStore) Commit(id string, index int, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.findLocked(id)
	if sess == nil {
		return false
	}
	if !sess.SetContentAt(index, content) {
		return false
	}
	s.persistLocked()
	return true
}

// EditMessage overwrites the content at index, cascade-truncates the rest,
// and persists.
func (s *SessionStore) EditMessage(id string, index int, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.findLocked(id)
	if sess == nil || !sess.EditAt(index, content) {
		return false
	}
	s.persistLocked()
	return true
}

// DeleteMessage removes exactly the message at index and persists.
func (s *SessionStore) DeleteMessage(id string, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.findLocked(id)
	if sess == nil || !sess.DeleteAt(index) {
		return false
	}
	s.persistLocked()
	return true
}

// RemoveForRegenerate removes exactly the message at index (no cascade)
// and persists, ahead of a fresh stream cycle.
func (s *SessionStore) RemoveForRegenerate(id string, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.findLocked(id)
	if sess == nil || !sess.RemoveForRegenerate(index) {
		return false
	}
	s.persistLocked()
	return true
}

// HistoryBefore returns a copy of the session's messages before end,
// typically the index of the placeholder a stream cycle is about to fill.
// Returns nil for an unknown session.
func (s *SessionStore) HistoryBefore(id string, end int) []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.findLocked(id)
	if sess == nil {
		return nil
	}
	return sess.HistoryBefore(end)
}

// IsGreeting reports whether the message at index is the session's fixed
// opening greeting. False for an unknown session.
func (s *SessionStore) IsGreeting(id string, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.findLocked(id)
	return sess != nil && sess.IsGreeting(index)
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func (s *SessionStore) findLocked(id string) *model.Session {
	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess
		}
	}
	return nil
}

// persistLocked writes the session list and active pointer through the kv
// store. Failures are logged and swallowed.
func (s *SessionStore) persistLocked() {
	data, err := json.Marshal(s.sessions)
	if err != nil {
		log.Printf("store: failed to serialize sessions: %v", err)
		return
	}
	if err := s.store.SetString(sessionsKey, string(data)); err != nil {
		log.Printf("store: failed to persist sessions: %v", err)
	}
	if err := s.store.SetString(activeKey, s.activeID); err != nil {
		log.Printf("store: failed to persist active session id: %v", err)
	}
}
