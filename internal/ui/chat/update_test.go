// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sdetchat/sdetchat-tui/internal/kv"
	"github.com/sdetchat/sdetchat-tui/internal/model"
	"github.com/sdetchat/sdetchat-tui/internal/quota"
	"github.com/sdetchat/sdetchat-tui/internal/store"
	"github.com/sdetchat/sdetchat-tui/internal/stream"
	"github.com/sdetchat/sdetchat-tui/internal/ui/styles"
)

type stubDispatcher struct{}

func (stubDispatcher) Dispatch(context.Context, []model.Message, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("data: [DONE]\n\n")), nil
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	sessions := store.New(kv.NewMemory())
	gate := quota.NewGate(kv.NewMemory(), 50)
	orchestrator := stream.New(sessions, gate, stubDispatcher{}, stream.Callbacks{})

	m := New(sessions, gate, orchestrator, []string{"sdet-builtin", "gpt-4o-mini"}, styles.NewTheme())
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m
}

func keyPress(m *Model, keyType tea.KeyType) {
	m.Update(tea.KeyMsg{Type: keyType})
}

func TestSubmitEmptyInputIsNoOp(t *testing.T) {
	m := newTestModel(t)

	m.input.SetValue("   ")
	_, cmd := m.submit()
	if cmd != nil {
		t.Error("blank input must not produce a command")
	}
	if len(m.sessions.Active().History) != 1 {
		t.Error("history must be untouched")
	}
}

func TestSubmitClearsInputAndProducesCommand(t *testing.T) {
	m := newTestModel(t)

	m.input.SetValue("write a test")
	_, cmd := m.submit()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if m.input.Value() != "" {
		t.Error("input must be cleared on submit")
	}
}

func TestNewChatCreatesAndActivates(t *testing.T) {
	m := newTestModel(t)
	before := m.sessions.ActiveID()

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})

	if m.sessions.ActiveID() == before {
		t.Error("new chat must activate the created session")
	}
	if len(m.sessions.List()) != 2 {
		t.Errorf("session count = %d, want 2", len(m.sessions.List()))
	}
}

func TestSessionPanelSwitching(t *testing.T) {
	m := newTestModel(t)
	first := m.sessions.ActiveID()
	second := m.sessions.Create()
	m.sessions.SwitchTo(second.ID)

	// Open the panel, move to the second row, select it. List order is
	// most-recently-created first, so row 0 is the new session and row 1
	// is the original.
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if !m.showSessions {
		t.Fatal("panel must open")
	}
	keyPress(m, tea.KeyDown)
	keyPress(m, tea.KeyEnter)

	if m.showSessions {
		t.Error("panel must close on selection")
	}
	if m.sessions.ActiveID() != first {
		t.Errorf("active = %s, want %s", m.sessions.ActiveID(), first)
	}
}

func TestSessionPanelDeleteKeepsListNonEmpty(t *testing.T) {
	m := newTestModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlX})

	if len(m.sessions.List()) == 0 {
		t.Fatal("session list must never be empty")
	}
	if m.sessionCursor < 0 {
		t.Error("cursor must stay in range")
	}
}

func TestBeginEditLastFillsInput(t *testing.T) {
	m := newTestModel(t)
	id := m.sessions.ActiveID()
	m.sessions.AppendUser(id, "original question", nil)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlE})

	if m.editIndex != 1 {
		t.Errorf("editIndex = %d, want 1", m.editIndex)
	}
	if m.input.Value() != "original question" {
		t.Errorf("input = %q", m.input.Value())
	}

	// Esc abandons the edit.
	keyPress(m, tea.KeyEsc)
	if m.editIndex != -1 || m.input.Value() != "" {
		t.Error("cancel must reset edit state")
	}
}

func TestEditLastSkipsWhenNoUserMessage(t *testing.T) {
	m := newTestModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlE})

	if m.editIndex != -1 {
		t.Error("greeting-only history has nothing to edit")
	}
}

func TestRegenerateSkipsGreeting(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.regenerateLast()
	if cmd != nil {
		t.Error("greeting must never be a regenerate target")
	}
}

func TestCycleModel(t *testing.T) {
	m := newTestModel(t)
	if m.CurrentModel() != "sdet-builtin" {
		t.Fatalf("initial model = %q", m.CurrentModel())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	if m.CurrentModel() != "gpt-4o-mini" {
		t.Errorf("model after cycle = %q", m.CurrentModel())
	}
}

func TestQuotaRefusedShowsNotice(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(QuotaRefusedMsg{})
	if cmd == nil {
		t.Fatal("expected notice command")
	}
	msg := cmd()
	notice, ok := msg.(noticeMsg)
	if !ok {
		t.Fatalf("msg = %T, want noticeMsg", msg)
	}
	m.Update(notice)
	if m.notice == "" {
		t.Error("notice must be visible")
	}
}

func TestViewShowsQuotaAndErrorMarker(t *testing.T) {
	m := newTestModel(t)
	id := m.sessions.ActiveID()
	m.sessions.AppendUser(id, "q", nil)
	idx, _ := m.sessions.AppendPlaceholder(id)
	m.sessions.Commit(id, idx, stream.ErrorMarker)
	m.refreshViewport()

	out := m.View()
	if !strings.Contains(out, "requests left") {
		t.Error("status bar must show the remaining quota")
	}
	if !strings.Contains(out, "Error processing request.") {
		t.Error("error marker must be rendered in the conversation")
	}
}

func TestViewRendersAssistantReply(t *testing.T) {
	m := newTestModel(t)
	id := m.sessions.ActiveID()
	m.sessions.AppendUser(id, "q", nil)
	idx, _ := m.sessions.AppendPlaceholder(id)
	m.sessions.Commit(id, idx, "plain answer")
	m.refreshViewport()

	if !strings.Contains(m.View(), "plain answer") {
		t.Error("assistant reply must be rendered in the conversation")
	}
}

func TestStreamDeltaScrollsToBottom(t *testing.T) {
	m := newTestModel(t)
	id := m.sessions.ActiveID()
	m.sessions.AppendUser(id, "q", nil)
	idx, _ := m.sessions.AppendPlaceholder(id)
	m.sessions.UpdateStreaming(id, idx, "partial answer")

	m.Update(StreamDeltaMsg{SessionID: id, Index: idx, Content: "partial answer"})

	if !m.viewport.AtBottom() {
		t.Error("viewport must follow the stream")
	}
}
