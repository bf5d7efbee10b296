// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the meshchat TUI.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/meshchat-tui/internal/model"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the full chat screen.
func (m Model) View() string {
	if !m.ready {
		return "Starting meshchat..."
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.machine.Current().PickerOpen() && m.picker.HasCandidates() {
		b.WriteString(m.picker.View())
		b.WriteString("\n")
	}

	if m.banner.text != "" {
		b.WriteString(m.theme.ErrorBox.Render(m.banner.text))
		b.WriteString("\n")
	}

	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	return b.String()
}

func (m Model) renderHeader() string {
	return m.theme.Header.Render("meshchat") +
		m.theme.StatusBar.Render("  local mesh gateway client")
}

func (m Model) renderInput() string {
	prompt := m.input.View()
	if m.machine.Current().Busy() {
		prompt = m.spinner.View() + " " + prompt
	}
	return m.theme.InputContainer.Width(max(m.width-2, 10)).Render(prompt)
}

func (m Model) renderStatusBar() string {
	gw := m.gw.BaseURL() + " (offline)"
	if m.gatewayOK {
		gw = m.gw.BaseURL()
	}

	parts := []string{
		gw,
		fmt.Sprintf("peers: %d online", len(m.peers.online)),
		m.theme.StatusState.Render(m.machine.Current().String()),
	}

	if slot := m.conversation.NewestAggregation(); slot != nil && slot.IsStreaming {
		counter := fmt.Sprintf("replies %d/%d", slot.Responded, slot.Total)
		parts = append(parts, m.theme.CounterBadge.Render(counter))
	}

	return m.theme.StatusBar.Render(" " + strings.Join(parts, "  |  "))
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// refreshTranscript re-renders the conversation into the viewport and pins
// the view to the newest message.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	history := m.conversation.GetHistory()
	if len(history) == 0 {
		return m.theme.SystemLabel.Render("\n  No messages yet. Say something, or /help for commands.\n")
	}

	blocks := make([]string, 0, len(history))
	for _, msg := range history {
		blocks = append(blocks, m.renderMessage(msg))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderMessage(msg *model.Message) string {
	label := m.labelFor(msg)
	body := m.bodyFor(msg)

	ts := m.theme.SystemLabel.Render(msg.Timestamp.Format("15:04"))
	header := lipgloss.JoinHorizontal(lipgloss.Left, label, " ", ts)
	return header + "\n" + body
}

func (m Model) labelFor(msg *model.Message) string {
	name := msg.Role.DisplayName()

	switch msg.Role {
	case model.RoleUser:
		label := m.theme.UserLabel.Render(name)
		if len(msg.Mentions) > 0 {
			label += m.theme.SystemLabel.Render(" to @" + strings.Join(msg.Mentions, " @"))
		}
		return label

	case model.RoleAssistant:
		label := m.theme.AssistantLabel.Render(name)
		if msg.IsAggregation() {
			counter := fmt.Sprintf("[%d/%d]", msg.Responded, msg.Total)
			label += " " + m.theme.CounterBadge.Render(counter)
		}
		return label

	default:
		return m.theme.SystemLabel.Render(name)
	}
}

func (m Model) bodyFor(msg *model.Message) string {
	content := msg.Content

	if msg.IsStreaming {
		if content == "" {
			content = m.spinner.View()
		} else {
			content += m.theme.StreamCursor.Render("▌")
		}
		return m.theme.MessageBody.Render(content)
	}

	// Markdown only for completed assistant output; rendering partial
	// markdown flickers badly.
	if msg.Role == model.RoleAssistant && !msg.IsEmpty() {
		return m.markdown.Render(content)
	}
	return m.theme.MessageBody.Render(content)
}
