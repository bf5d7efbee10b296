// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mention detects @peer and /command triggers in the input line and
// extracts addressed peers from submitted messages.
package mention

import (
	"regexp"
	"strings"
	"unicode"
)

// =============================================================================
// TRIGGERS
// =============================================================================

// Kind distinguishes the two picker triggers.
type Kind int

const (
	// KindMention is the @peer trigger.
	KindMention Kind = iota
	// KindCommand is the /command trigger.
	KindCommand
)

// Trigger describes an active picker trigger at the cursor.
type Trigger struct {
	Kind Kind
	// Pos is the rune index of the trigger character.
	Pos int
	// Partial is the filter text between the trigger and the cursor.
	Partial string
}

// TriggerAt scans backwards from the cursor for an active trigger.
// cursor is a rune index into text.
//
// A trigger is active only when the @ or / sits at the start of input or
// immediately after whitespace, and no whitespace has been typed between
// the trigger and the cursor (a space closes the picker).
func TriggerAt(text string, cursor int) (Trigger, bool) {
	runes := []rune(text)
	if cursor < 0 || cursor > len(runes) {
		return Trigger{}, false
	}

	for i := cursor - 1; i >= 0; i-- {
		r := runes[i]

		if unicode.IsSpace(r) {
			return Trigger{}, false
		}

		if r == '@' || r == '/' {
			// Must be at start of input or preceded by whitespace.
			if i > 0 && !unicode.IsSpace(runes[i-1]) {
				return Trigger{}, false
			}

			kind := KindMention
			if r == '/' {
				kind = KindCommand
			}
			return Trigger{
				Kind:    kind,
				Pos:     i,
				Partial: string(runes[i+1 : cursor]),
			}, true
		}
	}

	return Trigger{}, false
}

// =============================================================================
// FILTERING
// =============================================================================

// Filter returns the candidates whose name contains partial,
// case-insensitively, preserving candidate order. An empty partial matches
// everything.
func Filter(candidates []string, partial string) []string {
	if partial == "" {
		out := make([]string, len(candidates))
		copy(out, candidates)
		return out
	}

	needle := strings.ToLower(partial)
	var out []string
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c), needle) {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// PEER EXTRACTION
// =============================================================================

// peerPattern matches @name tokens. The name charset is alphanumerics,
// underscore, and hyphen; anything else ends the token.
var peerPattern = regexp.MustCompile(`@([A-Za-z0-9_-]+)`)

// ExtractPeers returns the peers addressed in text, deduplicated, in
// first-seen order. A mention counts only when the @ is at the start of the
// text or follows a non-name character, so embedded at-signs (as in email
// addresses) are not treated as mentions.
func ExtractPeers(text string) []string {
	matches := peerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var peers []string
	for _, m := range matches {
		atPos := m[0]
		if atPos > 0 {
			prev := rune(text[atPos-1])
			if isNameRune(prev) {
				continue
			}
		}

		name := text[m[2]:m[3]]
		if !seen[name] {
			seen[name] = true
			peers = append(peers, name)
		}
	}
	return peers
}

func isNameRune(r rune) bool {
	return r == '_' || r == '-' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
