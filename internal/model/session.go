// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"github.com/google/uuid"

	"github.com/sdetchat/sdetchat-tui/internal/util"
)

// Greeting is the fixed assistant message that opens every new session.
// It is never offered edit/regenerate/feedback actions and is stripped
// before dispatch to any backend.
const Greeting = "Hello. I am your SDET coding agent. Ready for your instructions."

// DefaultTitle is the title of a session before its first user message.
const DefaultTitle = "New Chat"

// titleMaxRunes caps the derived session title length before the ellipsis.
const titleMaxRunes = 30

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session holds one persisted conversation.
type Session struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	History []Message `json:"history"`
}

// NewSession creates a session with a fresh id and the opening greeting.
func NewSession() *Session {
	return &Session{
		ID:    uuid.NewString(),
		Title: DefaultTitle,
		History: []Message{
			NewAssistantMessage(Greeting),
		},
	}
}

// IsGreeting reports whether the message at index is the fixed opening
// greeting still sitting at position 0.
func (s *Session) IsGreeting(index int) bool {
	return index == 0 && len(s.History) > 0 &&
		s.History[0].Role == RoleAssistant && s.History[0].Content == Greeting
}

// maybeSetTitle derives the title from the first user message. The title is
// set only while the session holds at most two messages (greeting + first
// user turn) and never changes afterwards.
func (s *Session) maybeSetTitle(userContent string) {
	if len(s.History) <= 2 {
		s.Title = util.TruncateRunes(userContent, titleMaxRunes)
	}
}
