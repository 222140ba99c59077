// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the Bubble Tea message types used by the chat
// interface. All message types follow Bubble Tea conventions and are
// immutable.
package chat

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamDeltaMsg delivers the full accumulated text of the streaming
// assistant message after a new delta arrived.
type StreamDeltaMsg struct {
	SessionID string
	Index     int
	Content   string
}

// StreamDoneMsg signals that a stream cycle finished, successfully or not.
// Content is the committed final text (the error marker on failure).
type StreamDoneMsg struct {
	SessionID string
	Index     int
	Content   string
	Err       error
}

// QuotaRefusedMsg signals that the quota gate refused a request; nothing
// was mutated.
type QuotaRefusedMsg struct{}

// =============================================================================
// UI STATE MESSAGES
// =============================================================================

// statusExpiredMsg clears a transient status line notice.
type statusExpiredMsg struct{}
