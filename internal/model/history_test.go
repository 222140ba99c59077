// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "testing"

// historyFixture builds a session with history [greeting, U0, A0, U1, A1, U2].
func historyFixture() *Session {
	s := NewSession()
	s.History = append(s.History,
		NewUserMessage("U0", nil),
		NewAssistantMessage("A0"),
		NewUserMessage("U1", nil),
		NewAssistantMessage("A1"),
		NewUserMessage("U2", nil),
	)
	return s
}

func TestAppendUserReturnsIndex(t *testing.T) {
	s := NewSession()

	idx := s.AppendUser("hello", nil)
	if idx != 1 {
		t.Errorf("index = %d, want 1", idx)
	}
	if s.History[idx].Role != RoleUser || s.History[idx].Content != "hello" {
		t.Errorf("message = %+v", s.History[idx])
	}
}

func TestAppendPlaceholderIsEmptyAssistant(t *testing.T) {
	s := NewSession()
	s.AppendUser("hi", nil)

	idx := s.AppendPlaceholder()
	if idx != 2 {
		t.Errorf("index = %d, want 2", idx)
	}
	msg := s.History[idx]
	if msg.Role != RoleAssistant || msg.Content != "" {
		t.Errorf("placeholder = %+v, want empty assistant message", msg)
	}
}

func TestEditCascadeTruncates(t *testing.T) {
	// History [U0, A0, U1, A1, U2]: editing index 1 must leave exactly
	// [U0, "x"], every index >= 2 removed.
	s := &Session{ID: "t", History: []Message{
		NewUserMessage("U0", nil),
		NewAssistantMessage("A0"),
		NewUserMessage("U1", nil),
		NewAssistantMessage("A1"),
		NewUserMessage("U2", nil),
	}}

	if !s.EditAt(1, "x") {
		t.Fatal("EditAt returned false")
	}

	if len(s.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(s.History))
	}
	if s.History[0].Content != "U0" {
		t.Errorf("history[0] = %q, want 'U0'", s.History[0].Content)
	}
	if s.History[1].Content != "x" {
		t.Errorf("history[1] = %q, want 'x'", s.History[1].Content)
	}
}

func TestRegenerateRemovesOnlyTarget(t *testing.T) {
	// History [U0, A0]: regenerating index 1 yields [U0].
	s := &Session{ID: "t", History: []Message{
		NewUserMessage("U0", nil),
		NewAssistantMessage("A0"),
	}}

	if !s.RemoveForRegenerate(1) {
		t.Fatal("RemoveForRegenerate returned false")
	}
	if len(s.History) != 1 || s.History[0].Content != "U0" {
		t.Errorf("history = %+v, want [U0]", s.History)
	}
}

func TestRegenerateDoesNotTruncateTrailing(t *testing.T) {
	// Deliberate asymmetry with edit: removing a mid-history assistant
	// message leaves the messages after it in place.
	s := historyFixture()
	before := len(s.History)

	if !s.RemoveForRegenerate(2) {
		t.Fatal("RemoveForRegenerate returned false")
	}

	if len(s.History) != before-1 {
		t.Fatalf("history length = %d, want %d", len(s.History), before-1)
	}
	// U1, A1, U2 all survive, shifted down by one.
	want := []string{Greeting, "U0", "U1", "A1", "U2"}
	for i, w := range want {
		if s.History[i].Content != w {
			t.Errorf("history[%d] = %q, want %q", i, s.History[i].Content, w)
		}
	}
}

func TestDeleteAtNoCascade(t *testing.T) {
	s := historyFixture()

	if !s.DeleteAt(3) {
		t.Fatal("DeleteAt returned false")
	}
	want := []string{Greeting, "U0", "A0", "A1", "U2"}
	if len(s.History) != len(want) {
		t.Fatalf("history length = %d, want %d", len(s.History), len(want))
	}
	for i, w := range want {
		if s.History[i].Content != w {
			t.Errorf("history[%d] = %q, want %q", i, s.History[i].Content, w)
		}
	}
}

func TestMutationsOutOfRangeAreNoOps(t *testing.T) {
	s := NewSession()

	if s.DeleteAt(5) || s.EditAt(-1, "x") || s.RemoveForRegenerate(99) || s.SetContentAt(7, "x") {
		t.Error("out-of-range mutation reported success")
	}
	if len(s.History) != 1 {
		t.Errorf("history length = %d, want 1", len(s.History))
	}
}

func TestHistoryBeforeReturnsCopy(t *testing.T) {
	s := NewSession()
	s.AppendUser("q", nil)
	placeholder := s.AppendPlaceholder()

	msgs := s.HistoryBefore(placeholder)
	if len(msgs) != 2 {
		t.Fatalf("length = %d, want 2", len(msgs))
	}
	msgs[1].Content = "mutated"

	if s.History[1].Content != "q" {
		t.Error("HistoryBefore must return a copy")
	}
}
