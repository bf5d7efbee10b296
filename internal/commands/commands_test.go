// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the TUI.
package commands

import (
	"reflect"
	"strings"
	"testing"
)

// =============================================================================
// REGISTRY TESTS
// =============================================================================

func TestRegistry_Builtins(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{"/help", "/clear", "/peers", "/refresh", "/quit"} {
		if r.Get(name) == nil {
			t.Errorf("Get(%q) = nil, want builtin command", name)
		}
	}
}

func TestRegistry_Aliases(t *testing.T) {
	r := NewRegistry()

	if r.Get("/q") == nil || r.Get("/q").Name != "/quit" {
		t.Error("alias /q should resolve to /quit")
	}
	if r.Get("/?") == nil || r.Get("/?").Name != "/help" {
		t.Error("alias /? should resolve to /help")
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()

	want := []string{"clear", "help", "peers", "quit", "refresh"}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestRegistry_HelpText(t *testing.T) {
	r := NewRegistry()

	cmd := r.Get("/help")
	msg := cmd.Handler(nil)()

	help, ok := msg.(HelpRequestedMsg)
	if !ok {
		t.Fatalf("handler message type = %T, want HelpRequestedMsg", msg)
	}
	for _, name := range []string{"/clear", "/peers", "/refresh", "/quit"} {
		if !strings.Contains(help.Text, name) {
			t.Errorf("help text missing %q", name)
		}
	}
}

func TestRegistry_HandlerMessages(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Get("/clear").Handler(nil)().(ClearRequestedMsg); !ok {
		t.Error("/clear should produce ClearRequestedMsg")
	}
	if _, ok := r.Get("/peers").Handler(nil)().(PeersRequestedMsg); !ok {
		t.Error("/peers should produce PeersRequestedMsg")
	}
	if _, ok := r.Get("/refresh").Handler(nil)().(RefreshRequestedMsg); !ok {
		t.Error("/refresh should produce RefreshRequestedMsg")
	}
}

// =============================================================================
// PARSER TESTS
// =============================================================================

func TestParser_Parse(t *testing.T) {
	p := NewParser(NewRegistry())

	tests := []struct {
		input     string
		isCommand bool
		name      string
		found     bool
		args      []string
	}{
		{"/help", true, "/help", true, nil},
		{"  /clear  ", true, "/clear", true, nil},
		{"/peers online now", true, "/peers", true, []string{"online", "now"}},
		{"/nonsense", true, "/nonsense", false, nil},
		{"hello world", false, "", false, nil},
		{"", false, "", false, nil},
	}

	for _, tc := range tests {
		got := p.Parse(tc.input)

		if got.IsCommand != tc.isCommand {
			t.Errorf("Parse(%q).IsCommand = %v, want %v", tc.input, got.IsCommand, tc.isCommand)
			continue
		}
		if got.CommandName != tc.name {
			t.Errorf("Parse(%q).CommandName = %q, want %q", tc.input, got.CommandName, tc.name)
		}
		if (got.Command != nil) != tc.found {
			t.Errorf("Parse(%q) found = %v, want %v", tc.input, got.Command != nil, tc.found)
		}
		if !reflect.DeepEqual(got.Args, tc.args) {
			t.Errorf("Parse(%q).Args = %v, want %v", tc.input, got.Args, tc.args)
		}
	}
}

func TestIsCommand(t *testing.T) {
	if !IsCommand("/quit") || !IsCommand("  /quit") {
		t.Error("IsCommand should accept leading whitespace")
	}
	if IsCommand("quit") || IsCommand("") {
		t.Error("IsCommand should reject non-slash input")
	}
}

func TestExtractCommandName(t *testing.T) {
	if got := ExtractCommandName("/peers online"); got != "/peers" {
		t.Errorf("ExtractCommandName = %q, want /peers", got)
	}
	if got := ExtractCommandName("/help"); got != "/help" {
		t.Errorf("ExtractCommandName = %q, want /help", got)
	}
	if got := ExtractCommandName("plain"); got != "" {
		t.Errorf("ExtractCommandName = %q, want empty", got)
	}
}
