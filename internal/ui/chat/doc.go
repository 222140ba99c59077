// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the main chat view component for the sdetchat TUI.

The package is a thin presentation layer over the core: every user action
maps to a session store or stream orchestrator call, and every streamed
delta comes back in as a Bubble Tea message. The chat view never mutates
history directly.

# Key Components

  - model.go - the Bubble Tea model and constructor
  - update.go - message handling and user actions
  - view.go - rendering: messages, session list, status bar
  - messages.go - Bubble Tea message types
  - keys.go - keyboard bindings

# Streaming

The stream orchestrator runs in its own goroutine and reports progress
through callbacks; main.go bridges those callbacks into StreamDeltaMsg and
StreamDoneMsg via tea.Program.Send. Each delta re-renders the whole
assistant message, because earlier markdown spans can change meaning as
more characters arrive.
*/
package chat
