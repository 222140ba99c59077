// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// HISTORY MUTATIONS
// =============================================================================

// AppendUser appends a user message and returns its index. The session
// title is derived from this content while the history is still short
// enough (greeting + first user turn).
func (s *Session) AppendUser(content string, attachments []Attachment) int {
	s.History = append(s.History, NewUserMessage(content, attachments))
	s.maybeSetTitle(content)
	return len(s.History) - 1
}

// AppendPlaceholder appends an empty assistant message and returns its
// index. The index is the only handle the stream orchestrator holds while
// filling the message, so no operation may reorder history during a stream
// cycle.
func (s *Session) AppendPlaceholder() int {
	s.History = append(s.History, NewAssistantMessage(""))
	return len(s.History) - 1
}

// SetContentAt overwrites the content of the message at index. Reports
// false if index is out of range.
func (s *Session) SetContentAt(index int, content string) bool {
	if index < 0 || index >= len(s.History) {
		return false
	}
	s.History[index].Content = content
	return true
}

// DeleteAt removes exactly the message at index, no cascade. Reports false
// if index is out of range.
func (s *Session) DeleteAt(index int) bool {
	if index < 0 || index >= len(s.History) {
		return false
	}
	s.History = append(s.History[:index], s.History[index+1:]...)
	return true
}

// EditAt overwrites the content at index, then cascade-truncates every
// message after it. Editing a past turn forks the conversation: the old
// continuation is stale and is discarded. Reports false if index is out of
// range.
func (s *Session) EditAt(index int, content string) bool {
	if index < 0 || index >= len(s.History) {
		return false
	}
	s.History[index].Content = content
	s.History = s.History[:index+1]
	return true
}

// RemoveForRegenerate removes exactly the message at index ahead of a fresh
// stream cycle. Unlike EditAt it does not truncate trailing messages.
// Reports false if index is out of range.
func (s *Session) RemoveForRegenerate(index int) bool {
	return s.DeleteAt(index)
}

// HistoryBefore returns a copy of the messages before end, typically the
// index of the unfilled placeholder a stream cycle is about to target.
func (s *Session) HistoryBefore(end int) []Message {
	if end < 0 || end > len(s.History) {
		end = len(s.History)
	}
	out := make([]Message, end)
	copy(out, s.History[:end])
	return out
}
