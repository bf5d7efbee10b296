// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable TUI widgets for meshchat.
package components

import (
	"strings"

	"github.com/jeranaias/meshchat-tui/internal/ui/styles"
	"github.com/jeranaias/meshchat-tui/internal/util"
)

// =============================================================================
// PICKER POPUP
// =============================================================================

// Picker is the popup list shown while a mention or command trigger is
// active. It renders a scrolling window of candidates with one selected.
type Picker struct {
	candidates []string
	selected   int
	maxVisible int
	width      int
	title      string
	theme      *styles.Theme
}

// NewPicker creates a picker with sensible display defaults.
func NewPicker(theme *styles.Theme) *Picker {
	return &Picker{
		maxVisible: 8,
		width:      40,
		theme:      theme,
	}
}

// SetCandidates replaces the candidate list and resets the selection.
func (p *Picker) SetCandidates(candidates []string) {
	p.candidates = candidates
	p.selected = 0
}

// SetTitle sets the hint line rendered above the list.
func (p *Picker) SetTitle(title string) {
	p.title = title
}

// SetWidth adjusts the popup width.
func (p *Picker) SetWidth(width int) {
	if width > 0 {
		p.width = width
	}
}

// HasCandidates reports whether there is anything to show.
func (p *Picker) HasCandidates() bool {
	return len(p.candidates) > 0
}

// Count returns the number of candidates.
func (p *Picker) Count() int {
	return len(p.candidates)
}

// Next moves the selection down, wrapping at the end.
func (p *Picker) Next() {
	if len(p.candidates) == 0 {
		return
	}
	p.selected = (p.selected + 1) % len(p.candidates)
}

// Prev moves the selection up, wrapping at the start.
func (p *Picker) Prev() {
	if len(p.candidates) == 0 {
		return
	}
	p.selected = (p.selected - 1 + len(p.candidates)) % len(p.candidates)
}

// Selected returns the currently selected candidate, or "" when empty.
func (p *Picker) Selected() string {
	if len(p.candidates) == 0 {
		return ""
	}
	return p.candidates[p.selected]
}

// View renders the popup. Returns "" when there are no candidates.
func (p *Picker) View() string {
	if len(p.candidates) == 0 {
		return ""
	}

	// Scrolling window centered on the selection.
	start := 0
	end := len(p.candidates)
	if len(p.candidates) > p.maxVisible {
		start = p.selected - p.maxVisible/2
		if start < 0 {
			start = 0
		}
		end = start + p.maxVisible
		if end > len(p.candidates) {
			end = len(p.candidates)
			start = end - p.maxVisible
		}
	}

	var b strings.Builder
	if p.title != "" {
		b.WriteString(p.theme.PickerTitle.Render(p.title))
		b.WriteString("\n")
	}
	for i := start; i < end; i++ {
		line := util.TruncateWidth(p.candidates[i], p.width-4)
		if i == p.selected {
			b.WriteString(p.theme.PickerSelected.Render("> " + line))
		} else {
			b.WriteString(p.theme.PickerItem.Render("  " + line))
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return p.theme.PickerPopup.Width(p.width).Render(b.String())
}
