// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
//
// A Session owns an ordered message history. Every new session opens with a
// fixed assistant greeting that is never edited, regenerated, or sent to a
// backend. History mutations (append, delete, edit, regenerate) live here
// as Session methods; persistence is layered on top by the store package.
//
// # Key Types
//
//   - Session: a persisted conversation with id, title, and history
//   - Message: one user or assistant turn
//   - Attachment: already-serialized file content carried opaquely
//
// Edit is a conversation fork: editing a past turn cascade-truncates every
// message after it. Regenerate removes exactly the target message and
// nothing else.
package model
