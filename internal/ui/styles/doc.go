// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the sdetchat TUI.

This package defines the color palette and component styles used throughout
the application. All colors use Lip Gloss AdaptiveColor for automatic
light/dark terminal detection.

# Color System (colors.go)

  - Purple - Primary accent for assistant messages and selections
  - Cyan - Brand color for info and user highlights
  - Emerald - Success states and healthy quota
  - Amber - Warnings and quota running low
  - Rose - Errors and exhausted quota

# Theme (theme.go)

Theme bundles the lipgloss styles for each component of the chat screen:
header, message bubbles, input area, status bar, and session list. Create
one with NewTheme and call Resize on terminal size changes.
*/
package styles
