// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "testing"

func TestNewThemeBuildsAllStyles(t *testing.T) {
	theme := NewTheme()
	if theme == nil {
		t.Fatal("NewTheme returned nil")
	}

	// Rendering with a fresh style panics only on programmer error; make
	// sure the main screen styles are usable.
	for name, render := range map[string]func() string{
		"header":      func() string { return theme.Header.Render("x") },
		"user":        func() string { return theme.UserBubble.Render("x") },
		"assistant":   func() string { return theme.AssistantBubble.Render("x") },
		"error":       func() string { return theme.ErrorMessage.Render("x") },
		"status":      func() string { return theme.StatusBar.Render("x") },
		"sessionList": func() string { return theme.SessionList.Render("x") },
	} {
		if out := render(); out == "" {
			t.Errorf("%s style rendered empty output", name)
		}
	}
}

func TestResize(t *testing.T) {
	theme := NewTheme()
	theme.Resize(120, 40)
	if theme.Width != 120 || theme.Height != 40 {
		t.Errorf("dimensions = %dx%d, want 120x40", theme.Width, theme.Height)
	}
}
