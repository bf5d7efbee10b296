// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package interaction models the chat input lifecycle as an explicit state
// machine driven from the UI update loop.
package interaction

import "testing"

// =============================================================================
// STATE TESTS
// =============================================================================

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Idle, "idle"},
		{Composing, "composing"},
		{Sending, "sending"},
		{Receiving, "receiving"},
		{Error, "error"},
		{MentionPickerActive, "mention-picker"},
		{CommandPickerActive, "command-picker"},
	}

	for _, tc := range tests {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("%d.String() = %q, want %q", tc.state, got, tc.want)
		}
	}
}

func TestState_PickerOpen(t *testing.T) {
	if !MentionPickerActive.PickerOpen() || !CommandPickerActive.PickerOpen() {
		t.Error("picker states should report PickerOpen")
	}
	if Composing.PickerOpen() {
		t.Error("Composing should not report PickerOpen")
	}
}

func TestState_Busy(t *testing.T) {
	if !Sending.Busy() || !Receiving.Busy() {
		t.Error("Sending and Receiving should report Busy")
	}
	if Idle.Busy() || Composing.Busy() {
		t.Error("Idle and Composing should not report Busy")
	}
}

// =============================================================================
// MACHINE TESTS
// =============================================================================

func TestMachine_StartsIdle(t *testing.T) {
	m := NewMachine()
	if m.Current() != Idle {
		t.Errorf("Current() = %v, want Idle", m.Current())
	}
}

func TestMachine_FullSubmissionCycle(t *testing.T) {
	m := NewMachine()

	steps := []State{Composing, Sending, Receiving, Idle}
	for _, target := range steps {
		if err := m.To(target, ""); err != nil {
			t.Fatalf("To(%v) error = %v", target, err)
		}
		if m.Current() != target {
			t.Fatalf("Current() = %v, want %v", m.Current(), target)
		}
	}
}

func TestMachine_InvalidTransitionRejected(t *testing.T) {
	m := NewMachine()

	// Receiving is only reachable through Sending.
	if err := m.To(Receiving, ""); err == nil {
		t.Error("To(Receiving) from Idle should fail")
	}
	if m.Current() != Idle {
		t.Errorf("failed transition changed state to %v", m.Current())
	}
}

func TestMachine_SelfTransitionAllowed(t *testing.T) {
	m := NewMachine()

	var payloads []string
	m.OnEnter(Error, func(p string) { payloads = append(payloads, p) })

	if err := m.To(Error, "first"); err != nil {
		t.Fatalf("To(Error) error = %v", err)
	}
	if err := m.To(Error, "second"); err != nil {
		t.Fatalf("To(Error) self-transition error = %v", err)
	}

	if len(payloads) != 2 || payloads[1] != "second" {
		t.Errorf("payloads = %v, want [first second]", payloads)
	}
}

func TestMachine_EnterHooksRunOnEveryEntry(t *testing.T) {
	m := NewMachine()

	var entries int
	m.OnEnter(Composing, func(string) { entries++ })

	m.To(Composing, "")
	m.To(Idle, "")
	m.To(Composing, "")

	if entries != 2 {
		t.Errorf("Composing entered %d times, want 2", entries)
	}
}

func TestMachine_PickerFromComposing(t *testing.T) {
	m := NewMachine()

	var filter string
	m.OnEnter(MentionPickerActive, func(p string) { filter = p })

	m.To(Composing, "")
	if err := m.To(MentionPickerActive, "al"); err != nil {
		t.Fatalf("To(MentionPickerActive) error = %v", err)
	}

	if filter != "al" {
		t.Errorf("filter payload = %q, want 'al'", filter)
	}

	// Closing the picker returns to composing.
	if err := m.To(Composing, ""); err != nil {
		t.Fatalf("To(Composing) error = %v", err)
	}
}

func TestMachine_ErrorRecovers(t *testing.T) {
	m := NewMachine()

	m.To(Composing, "")
	m.To(Sending, "")
	if err := m.To(Error, "gateway unreachable"); err != nil {
		t.Fatalf("To(Error) error = %v", err)
	}

	// Auto-dismiss returns to Idle; typing during the error goes to Composing.
	if err := m.To(Idle, ""); err != nil {
		t.Fatalf("To(Idle) from Error error = %v", err)
	}
}

func TestMachine_SendingFromIdle(t *testing.T) {
	// Picker-driven submits can go straight from a picker state to Sending,
	// and programmatic submits from Idle.
	m := NewMachine()
	if err := m.To(Sending, ""); err != nil {
		t.Fatalf("To(Sending) from Idle error = %v", err)
	}
}
