// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file implements rendering: the message viewport, the session
// panel, the input area, and the status bar.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/sdetchat/sdetchat-tui/internal/model"
	"github.com/sdetchat/sdetchat-tui/internal/stream"
)

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if m.showSessions {
		b.WriteString(m.renderSessionPanel())
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")
	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

// refreshViewport re-renders the active session's history into the
// viewport. Called after every mutation and every streamed delta: the
// whole message is re-rendered because markdown earlier in the text can
// change meaning as more characters arrive.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	active := m.sessions.Active()
	if active == nil {
		m.viewport.SetContent("")
		return
	}

	var parts []string
	for _, msg := range active.History {
		parts = append(parts, m.renderMessage(msg))
	}
	m.viewport.SetContent(strings.Join(parts, "\n"))
}

func (m *Model) renderMessage(msg model.Message) string {
	var label string
	switch msg.Role {
	case model.RoleUser:
		label = m.theme.UserLabel.Render(msg.Role.DisplayName())
	default:
		label = m.theme.AssistantLabel.Render(msg.Role.DisplayName())
	}

	content := msg.Content
	if content == "" {
		content = "..."
	}

	bubbleWidth := m.width - 4
	if bubbleWidth < 20 {
		bubbleWidth = 20
	}

	var body string
	switch {
	case msg.Content == stream.ErrorMarker:
		body = m.theme.ErrorMessage.Render(content)
	case msg.Role == model.RoleAssistant:
		body = m.theme.AssistantBubble.MaxWidth(bubbleWidth).Render(m.renderMarkdown(content))
	default:
		body = m.theme.UserBubble.MaxWidth(bubbleWidth).Render(content)
	}

	if len(msg.Attachments) > 0 {
		names := make([]string, len(msg.Attachments))
		for i, a := range msg.Attachments {
			names[i] = a.Name
		}
		body += "\n" + m.theme.SessionItem.Render("attached: "+strings.Join(names, ", "))
	}

	return label + "\n" + body
}

// renderMarkdown renders assistant markdown, falling back to the raw text
// when no renderer is available or rendering fails.
func (m *Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

// =============================================================================
// CHROME
// =============================================================================

func (m *Model) renderHeader() string {
	brand := m.theme.HeaderBrand.Render("sdetchat")

	title := ""
	if active := m.sessions.Active(); active != nil {
		title = active.Title
	}
	maxTitle := m.width - lipgloss.Width(brand) - 4
	if maxTitle > 0 {
		title = runewidth.Truncate(title, maxTitle, "…")
	}

	line := brand + "  " + m.theme.HeaderTitle.Render(title)
	return m.theme.Header.Width(m.width).Render(line)
}

func (m *Model) renderSessionPanel() string {
	list := m.sessions.List()
	activeID := m.sessions.ActiveID()

	var b strings.Builder
	b.WriteString(m.theme.HeaderTitle.Render("Sessions"))
	b.WriteString("\n\n")

	titleWidth := m.width - 10
	if titleWidth < 10 {
		titleWidth = 10
	}

	for i, sess := range list {
		title := runewidth.Truncate(sess.Title, titleWidth, "…")

		marker := "  "
		if sess.ID == activeID {
			marker = m.theme.SessionActive.Render("* ")
		}

		line := marker + title
		if i == m.sessionCursor {
			line = m.theme.SessionSelected.Render(line)
		} else {
			line = m.theme.SessionItem.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.ShortcutDesc.Render("Enter switch · C-x delete · Esc close"))

	height := m.viewport.Height
	return lipgloss.NewStyle().Height(height).Render(
		m.theme.SessionList.Width(m.width - 2).Render(b.String()))
}

func (m *Model) renderInput() string {
	prompt := m.theme.InputPrompt.Render("> ")
	if m.editIndex >= 0 {
		prompt = m.theme.InputPrompt.Render("edit> ")
	}
	return m.theme.InputContainer.Width(m.width - 2).Render(prompt + m.input.View())
}

func (m *Model) renderStatusBar() string {
	remaining := m.gate.Remaining()
	quotaStyle := m.theme.QuotaOK
	switch {
	case remaining <= 0:
		quotaStyle = m.theme.QuotaEmpty
	case remaining <= 10:
		quotaStyle = m.theme.QuotaLow
	}
	quotaPart := quotaStyle.Render(fmt.Sprintf("%d requests left", remaining))

	modelPart := m.theme.ShortcutDesc.Render(m.CurrentModel())

	right := quotaPart + "  " + modelPart
	var left string
	if m.notice != "" {
		left = m.notice
	} else if m.orchestrator.Busy() {
		left = "Generating..."
	} else {
		var hints []string
		for _, binding := range m.keyMap.ShortHelp() {
			h := binding.Help()
			hints = append(hints, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
		}
		left = strings.Join(hints, "  ")
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}
