// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file implements message handling and user actions.
package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sdetchat/sdetchat-tui/internal/model"
	"github.com/sdetchat/sdetchat-tui/internal/stream"
)

// noticeMsg sets a transient status line notice.
type noticeMsg string

// noticeDuration is how long a transient notice stays visible.
const noticeDuration = 4 * time.Second

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamDeltaMsg:
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case StreamDoneMsg:
		m.refreshViewport()
		m.viewport.GotoBottom()
		if msg.Err != nil {
			return m, m.notify("The request failed. The error is shown in the conversation.")
		}
		return m, nil

	case QuotaRefusedMsg:
		return m, m.notify("You have no requests left.")

	case noticeMsg:
		m.notice = string(msg)
		return m, tea.Tick(noticeDuration, func(time.Time) tea.Msg {
			return statusExpiredMsg{}
		})

	case statusExpiredMsg:
		m.notice = ""
		return m, nil
	}

	return m.updateComponents(msg)
}

func (m *Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.Resize(msg.Width, msg.Height)

	headerHeight := 1
	inputHeight := 3
	statusHeight := 1
	viewportHeight := msg.Height - headerHeight - inputHeight - statusHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(msg.Width, viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = viewportHeight
	}
	m.input.Width = msg.Width - 6

	m.buildRenderer()
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Quit) {
		return m, tea.Quit
	}

	if m.showSessions {
		return m.handleSessionPanelKey(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()

	case key.Matches(msg, m.keyMap.Cancel):
		if m.editIndex >= 0 {
			m.editIndex = -1
			m.input.SetValue("")
		}
		return m, nil

	case key.Matches(msg, m.keyMap.NewChat):
		sess := m.sessions.Create()
		m.sessions.SwitchTo(sess.ID)
		m.editIndex = -1
		m.input.SetValue("")
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keyMap.Sessions):
		m.showSessions = true
		m.sessionCursor = 0
		return m, nil

	case key.Matches(msg, m.keyMap.Regenerate):
		return m.regenerateLast()

	case key.Matches(msg, m.keyMap.EditLast):
		return m.beginEditLast()

	case key.Matches(msg, m.keyMap.CycleModel):
		if len(m.models) > 0 {
			m.modelIdx = (m.modelIdx + 1) % len(m.models)
		}
		return m, m.notify("Model: " + m.CurrentModel())

	case key.Matches(msg, m.keyMap.Like):
		return m.feedback(true)

	case key.Matches(msg, m.keyMap.Dislike):
		return m.feedback(false)
	}

	return m.updateComponents(msg)
}

func (m *Model) handleSessionPanelKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.sessions.List()

	switch {
	case key.Matches(msg, m.keyMap.Cancel), key.Matches(msg, m.keyMap.Sessions):
		m.showSessions = false
		return m, nil

	case key.Matches(msg, m.keyMap.Up):
		if m.sessionCursor > 0 {
			m.sessionCursor--
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		if m.sessionCursor < len(list)-1 {
			m.sessionCursor++
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		if m.sessionCursor < len(list) {
			m.sessions.SwitchTo(list[m.sessionCursor].ID)
		}
		m.showSessions = false
		m.editIndex = -1
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keyMap.DeleteSess):
		if m.sessionCursor < len(list) {
			m.sessions.Delete(list[m.sessionCursor].ID)
		}
		if m.sessionCursor >= len(m.sessions.List()) {
			m.sessionCursor = len(m.sessions.List()) - 1
		}
		m.refreshViewport()
		return m, nil
	}

	return m, nil
}

// =============================================================================
// USER ACTIONS
// =============================================================================

func (m *Model) submit() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}
	if m.orchestrator.Busy() {
		return m, m.notify("A response is already being generated.")
	}

	sessionID := m.sessions.ActiveID()
	modelID := m.CurrentModel()

	var cmd tea.Cmd
	if m.editIndex >= 0 {
		index := m.editIndex
		m.editIndex = -1
		cmd = func() tea.Msg {
			return cycleOutcome(m.orchestrator.EditResubmit(context.Background(), sessionID, index, content, modelID))
		}
	} else {
		cmd = func() tea.Msg {
			return cycleOutcome(m.orchestrator.Send(context.Background(), sessionID, content, nil, modelID))
		}
	}

	m.input.SetValue("")
	return m, cmd
}

func (m *Model) regenerateLast() (tea.Model, tea.Cmd) {
	if m.orchestrator.Busy() {
		return m, m.notify("A response is already being generated.")
	}
	active := m.sessions.Active()
	if active == nil {
		return m, nil
	}

	index := -1
	for i := len(active.History) - 1; i >= 0; i-- {
		if active.History[i].Role == model.RoleAssistant && !active.IsGreeting(i) {
			index = i
			break
		}
	}
	if index < 0 {
		return m, nil
	}

	sessionID := active.ID
	modelID := m.CurrentModel()
	return m, func() tea.Msg {
		return cycleOutcome(m.orchestrator.Regenerate(context.Background(), sessionID, index, modelID))
	}
}

func (m *Model) beginEditLast() (tea.Model, tea.Cmd) {
	active := m.sessions.Active()
	if active == nil {
		return m, nil
	}
	for i := len(active.History) - 1; i >= 0; i-- {
		if active.History[i].Role == model.RoleUser {
			m.editIndex = i
			m.input.SetValue(active.History[i].Content)
			m.input.CursorEnd()
			return m, m.notify("Editing resubmits and discards everything after this message.")
		}
	}
	return m, nil
}

// feedback logs a like/dislike for the latest assistant reply. The
// greeting is never a feedback target.
func (m *Model) feedback(liked bool) (tea.Model, tea.Cmd) {
	active := m.sessions.Active()
	if active == nil {
		return m, nil
	}
	for i := len(active.History) - 1; i >= 0; i-- {
		if active.History[i].Role == model.RoleAssistant && !active.IsGreeting(i) {
			verdict := "disliked"
			if liked {
				verdict = "liked"
			}
			log.Printf("chat: message %d %s in session %s", i, verdict, active.ID)
			return m, m.notify("Thanks for the feedback.")
		}
	}
	return m, nil
}

// cycleOutcome maps a finished orchestrator call to a message. Stream
// progress and completion arrive separately through the callback bridge,
// so most outcomes need no message at all.
func cycleOutcome(err error) tea.Msg {
	switch {
	case errors.Is(err, stream.ErrQuotaExhausted):
		return QuotaRefusedMsg{}
	case errors.Is(err, stream.ErrBusy):
		return noticeMsg("A response is already being generated.")
	}
	return nil
}

func (m *Model) notify(text string) tea.Cmd {
	return func() tea.Msg {
		return noticeMsg(text)
	}
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}
