// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the TUI.
package commands

import (
	"sort"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// COMMAND MESSAGES
// =============================================================================

// Command handlers communicate with the chat model through these messages.

// ClearRequestedMsg asks the chat model to reset the conversation.
type ClearRequestedMsg struct{}

// PeersRequestedMsg asks the chat model to list online/offline peers.
type PeersRequestedMsg struct{}

// RefreshRequestedMsg asks the chat model to re-poll the newest fan-out.
type RefreshRequestedMsg struct{}

// HelpRequestedMsg carries the rendered help text.
type HelpRequestedMsg struct {
	Text string
}

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Handler produces the message the chat model acts on
	Handler func(args []string) tea.Cmd
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// Names returns the primary command names without the leading slash,
// sorted, for the command picker's candidate list.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name[1:])
	}
	sort.Strings(names)
	return names
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show available commands",
		Handler: func(args []string) tea.Cmd {
			text := r.helpText()
			return func() tea.Msg { return HelpRequestedMsg{Text: text} }
		},
	})

	r.Register(&Command{
		Name:        "/clear",
		Aliases:     []string{"/c"},
		Description: "Clear the conversation on the gateway and locally",
		Handler: func(args []string) tea.Cmd {
			return func() tea.Msg { return ClearRequestedMsg{} }
		},
	})

	r.Register(&Command{
		Name:        "/peers",
		Aliases:     []string{"/p"},
		Description: "List online and offline peers",
		Handler: func(args []string) tea.Cmd {
			return func() tea.Msg { return PeersRequestedMsg{} }
		},
	})

	r.Register(&Command{
		Name:        "/refresh",
		Aliases:     []string{"/r"},
		Description: "Re-poll replies for the latest peer query",
		Handler: func(args []string) tea.Cmd {
			return func() tea.Msg { return RefreshRequestedMsg{} }
		},
	})

	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit meshchat",
		Handler: func(args []string) tea.Cmd {
			return tea.Quit
		},
	})
}

// helpText renders the command list for the /help output.
func (r *Registry) helpText() string {
	text := "Available commands:\n"
	for _, cmd := range r.All() {
		text += "\n  " + cmd.Name + " - " + cmd.Description
	}
	text += "\n\nMention peers with @name to fan a query out across the mesh."
	return text
}
