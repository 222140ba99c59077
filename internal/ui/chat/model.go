// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/sdetchat/sdetchat-tui/internal/quota"
	"github.com/sdetchat/sdetchat-tui/internal/store"
	"github.com/sdetchat/sdetchat-tui/internal/stream"
	"github.com/sdetchat/sdetchat-tui/internal/ui/styles"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// Styling
	theme  *styles.Theme
	keyMap KeyMap

	// Dimensions
	width  int
	height int
	ready  bool

	// Core collaborators
	sessions     *store.SessionStore
	gate         *quota.Gate
	orchestrator *stream.Orchestrator

	// Model selection
	models   []string
	modelIdx int

	// UI components
	viewport viewport.Model
	input    textinput.Model
	renderer *glamour.TermRenderer

	// Session panel
	showSessions  bool
	sessionCursor int

	// Edit mode: index of the user message being edited, -1 when not
	// editing. Submitting while set resubmits instead of sending.
	editIndex int

	// Transient status line notice
	notice string
}

// New creates the chat model. models lists the selectable model
// identifiers, default first.
func New(sessions *store.SessionStore, gate *quota.Gate, orchestrator *stream.Orchestrator, models []string, theme *styles.Theme) *Model {
	input := textinput.New()
	input.Placeholder = "Ask your SDET coding agent..."
	input.CharLimit = 0
	input.Focus()

	return &Model{
		theme:        theme,
		keyMap:       DefaultKeyMap(),
		sessions:     sessions,
		gate:         gate,
		orchestrator: orchestrator,
		models:       models,
		input:        input,
		editIndex:    -1,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// CurrentModel returns the selected model identifier.
func (m *Model) CurrentModel() string {
	if len(m.models) == 0 {
		return ""
	}
	return m.models[m.modelIdx%len(m.models)]
}

// buildRenderer rebuilds the markdown renderer for the current width.
// Renderer construction can fail only on invalid options; a nil renderer
// falls back to raw text in the view.
func (m *Model) buildRenderer() {
	wrap := m.width - 6
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		m.renderer = nil
		return
	}
	m.renderer = r
}
