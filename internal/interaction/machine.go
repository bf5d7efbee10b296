// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package interaction models the chat input lifecycle as an explicit state
// machine driven from the UI update loop.
package interaction

import "fmt"

// =============================================================================
// STATES
// =============================================================================

// State is one phase of the chat input lifecycle.
type State int

const (
	// Idle: no text, nothing in flight.
	Idle State = iota
	// Composing: user is typing.
	Composing
	// Sending: a submission is being dispatched.
	Sending
	// Receiving: streamed or aggregated content is arriving.
	Receiving
	// Error: a user-facing error message is displayed.
	Error
	// MentionPickerActive: the @peer picker is open over the input.
	MentionPickerActive
	// CommandPickerActive: the /command picker is open over the input.
	CommandPickerActive
)

var stateNames = map[State]string{
	Idle:                "idle",
	Composing:           "composing",
	Sending:             "sending",
	Receiving:           "receiving",
	Error:               "error",
	MentionPickerActive: "mention-picker",
	CommandPickerActive: "command-picker",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// PickerOpen reports whether the state is one of the picker overlays.
func (s State) PickerOpen() bool {
	return s == MentionPickerActive || s == CommandPickerActive
}

// Busy reports whether a request is in flight. Input submission is blocked
// while busy; typing is not.
func (s State) Busy() bool {
	return s == Sending || s == Receiving
}

// =============================================================================
// MACHINE
// =============================================================================

// validTransitions enumerates the allowed edges. Self-transitions are
// always allowed (re-entering a state refreshes its payload).
var validTransitions = map[State][]State{
	Idle:                {Composing, Sending, Error, CommandPickerActive, MentionPickerActive},
	Composing:           {Idle, Sending, Error, MentionPickerActive, CommandPickerActive},
	Sending:             {Receiving, Error, Idle},
	Receiving:           {Idle, Error},
	Error:               {Idle, Composing, MentionPickerActive, CommandPickerActive},
	MentionPickerActive: {Composing, Idle, Sending, Error, CommandPickerActive},
	CommandPickerActive: {Composing, Idle, Sending, Error, MentionPickerActive},
}

// Machine tracks the current state and runs per-state enter hooks.
// Side effects attach to states, not transitions: entering Error shows the
// message regardless of where the machine came from.
//
// Not safe for concurrent use; drive it from the UI update loop only.
type Machine struct {
	current State
	hooks   map[State][]func(payload string)
}

// NewMachine creates a machine starting in Idle.
func NewMachine() *Machine {
	return &Machine{
		current: Idle,
		hooks:   make(map[State][]func(payload string)),
	}
}

// Current returns the present state.
func (m *Machine) Current() State {
	return m.current
}

// OnEnter registers a hook invoked whenever the machine enters state.
// The payload carries state-specific data (the Error message, the picker's
// partial filter); it is empty when the transition has none.
func (m *Machine) OnEnter(state State, hook func(payload string)) {
	m.hooks[state] = append(m.hooks[state], hook)
}

// To transitions to the target state, running its enter hooks. Invalid
// transitions return an error and leave the machine unchanged.
func (m *Machine) To(target State, payload string) error {
	if target != m.current && !m.allowed(target) {
		return fmt.Errorf("invalid transition %s -> %s", m.current, target)
	}

	m.current = target
	for _, hook := range m.hooks[target] {
		hook(payload)
	}
	return nil
}

func (m *Machine) allowed(target State) bool {
	for _, s := range validTransitions[m.current] {
		if s == target {
			return true
		}
	}
	return false
}
