// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable TUI widgets for meshchat.
package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// MarkdownRenderer renders completed assistant messages as styled markdown.
// Streaming text is rendered plain; re-rendering markdown on every chunk
// causes visible flicker.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
	enabled  bool
}

// NewMarkdownRenderer creates a renderer for the given theme and wrap width.
func NewMarkdownRenderer(isDark bool, width int, enabled bool) *MarkdownRenderer {
	m := &MarkdownRenderer{width: width, enabled: enabled}
	if !enabled {
		return m
	}

	style := glamour.WithStandardStyle("light")
	if isDark {
		style = glamour.WithStandardStyle("dark")
	}

	r, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		m.enabled = false
		return m
	}
	m.renderer = r
	return m
}

// Render converts markdown to styled terminal output. On any failure the
// original text is returned so content is never lost.
func (m *MarkdownRenderer) Render(text string) string {
	if !m.enabled || m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// SetWidth rebuilds the renderer at a new wrap width.
func (m *MarkdownRenderer) SetWidth(isDark bool, width int) {
	if !m.enabled || width == m.width {
		return
	}
	rebuilt := NewMarkdownRenderer(isDark, width, true)
	if rebuilt.renderer != nil {
		m.renderer = rebuilt.renderer
		m.width = width
	}
}
