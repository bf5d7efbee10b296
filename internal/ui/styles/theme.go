// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the meshchat TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLE STYLES
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	SystemLabel    lipgloss.Style
	MessageBody    lipgloss.Style
	CounterBadge   lipgloss.Style
	StreamCursor   lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style

	// ==========================================================================
	// PICKER POPUP STYLES
	// ==========================================================================

	PickerPopup    lipgloss.Style
	PickerItem     lipgloss.Style
	PickerSelected lipgloss.Style
	PickerTitle    lipgloss.Style

	// ==========================================================================
	// STATUS BAR AND ERROR STYLES
	// ==========================================================================

	StatusBar   lipgloss.Style
	StatusState lipgloss.Style
	ErrorBox    lipgloss.Style
	Spinner     lipgloss.Style
}

// NewTheme builds the theme for the given name ("dark", "light", "auto").
func NewTheme(name string) *Theme {
	profile := termenv.ColorProfile()

	isDark := true
	switch name {
	case "light":
		isDark = false
	case "auto":
		isDark = termenv.HasDarkBackground()
	}

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}

	var (
		accent  = lipgloss.Color("39")  // blue
		user    = lipgloss.Color("42")  // green
		system  = lipgloss.Color("245") // gray
		errCol  = lipgloss.Color("196") // red
		counter = lipgloss.Color("214") // orange
		text    = lipgloss.Color("252")
		border  = lipgloss.Color("240")
	)
	if !isDark {
		text = lipgloss.Color("235")
		system = lipgloss.Color("243")
		border = lipgloss.Color("250")
	}

	t.Header = lipgloss.NewStyle().
		Foreground(accent).
		Bold(true).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().Foreground(accent).Bold(true)

	t.UserLabel = lipgloss.NewStyle().Foreground(user).Bold(true)
	t.AssistantLabel = lipgloss.NewStyle().Foreground(accent).Bold(true)
	t.SystemLabel = lipgloss.NewStyle().Foreground(system).Bold(true)
	t.MessageBody = lipgloss.NewStyle().Foreground(text)
	t.CounterBadge = lipgloss.NewStyle().Foreground(counter).Bold(true)
	t.StreamCursor = lipgloss.NewStyle().Foreground(accent).Blink(true)

	t.InputContainer = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().Foreground(accent).Bold(true)

	t.PickerPopup = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1)
	t.PickerItem = lipgloss.NewStyle().Foreground(text)
	t.PickerSelected = lipgloss.NewStyle().
		Foreground(lipgloss.Color("231")).
		Background(accent).
		Bold(true)
	t.PickerTitle = lipgloss.NewStyle().Foreground(system).Italic(true)

	t.StatusBar = lipgloss.NewStyle().Foreground(system)
	t.StatusState = lipgloss.NewStyle().Foreground(accent)
	t.ErrorBox = lipgloss.NewStyle().
		Foreground(errCol).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(errCol).
		Padding(0, 1)
	t.Spinner = lipgloss.NewStyle().Foreground(accent)

	return t
}
