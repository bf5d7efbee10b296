// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the TUI.
package commands

import (
	"strings"
	"unicode"
)

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParseResult contains the result of parsing user input.
type ParseResult struct {
	// IsCommand is true if the input starts with /
	IsCommand bool

	// Command is the matched command (nil if not found)
	Command *Command

	// CommandName is the raw command name (e.g., "/help")
	CommandName string

	// Args are the whitespace-separated arguments after the name
	Args []string
}

// =============================================================================
// PARSER
// =============================================================================

// Parser resolves slash-command input against a registry.
type Parser struct {
	registry *Registry
}

// NewParser creates a new parser with the given registry.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse parses user input and returns the parse result.
// Returns IsCommand=false if the input doesn't start with /.
func (p *Parser) Parse(input string) ParseResult {
	input = strings.TrimSpace(input)

	if !strings.HasPrefix(input, "/") {
		return ParseResult{}
	}

	fields := strings.Fields(input)
	result := ParseResult{
		IsCommand:   true,
		CommandName: fields[0],
	}
	if len(fields) > 1 {
		result.Args = fields[1:]
	}

	result.Command = p.registry.Get(result.CommandName)
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// IsCommand returns true if the input appears to be a command.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// ExtractCommandName extracts just the command name from input.
// e.g., "/peers online" -> "/peers"
func ExtractCommandName(input string) string {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return ""
	}

	end := strings.IndexFunc(input, unicode.IsSpace)
	if end == -1 {
		return input
	}
	return input[:end]
}
