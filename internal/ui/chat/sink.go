// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the meshchat TUI.
package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/meshchat-tui/internal/orchestrator"
)

// Sender delivers messages into the Bubble Tea event loop.
// *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// =============================================================================
// PROGRAM SINK
// =============================================================================

// ProgramSink bridges orchestrator slot events into Bubble Tea messages.
// It is created before the program exists; Attach installs the sender once
// the program is running. Events arriving before Attach are dropped, which
// only affects operations started before the UI loop, of which there are
// none.
type ProgramSink struct {
	mu     sync.RWMutex
	sender Sender
}

// NewProgramSink creates a sink with no sender attached.
func NewProgramSink() *ProgramSink {
	return &ProgramSink{}
}

// Attach installs the sender. Safe to call once the program is constructed.
func (s *ProgramSink) Attach(sender Sender) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sender = sender
}

func (s *ProgramSink) send(msg tea.Msg) {
	s.mu.RLock()
	sender := s.sender
	s.mu.RUnlock()
	if sender != nil {
		sender.Send(msg)
	}
}

// SlotOpened implements orchestrator.Sink.
func (s *ProgramSink) SlotOpened(slotID string, handle *orchestrator.QueryHandle) {
	s.send(SlotOpenedMsg{SlotID: slotID, Handle: handle})
}

// SlotText implements orchestrator.Sink.
func (s *ProgramSink) SlotText(slotID string, full string) {
	s.send(SlotTextMsg{SlotID: slotID, Full: full})
}

// SlotCounter implements orchestrator.Sink.
func (s *ProgramSink) SlotCounter(slotID string, replied, total int) {
	s.send(SlotCounterMsg{SlotID: slotID, Replied: replied, Total: total})
}

// SlotFinalized implements orchestrator.Sink.
func (s *ProgramSink) SlotFinalized(slotID string) {
	s.send(SlotFinalizedMsg{SlotID: slotID})
}

// SlotFailed implements orchestrator.Sink.
func (s *ProgramSink) SlotFailed(slotID string, userMsg string) {
	s.send(SlotFailedMsg{SlotID: slotID, UserMsg: userMsg})
}
