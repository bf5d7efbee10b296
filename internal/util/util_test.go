// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides string helpers for the meshchat TUI.
package util

import "testing"

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		s    string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"héllo wörld", 8, "héllo..."},
		{"abc", 3, "abc"},
		{"abcdef", 2, "ab"},
		{"anything", 0, ""},
	}

	for _, tc := range tests {
		if got := TruncateRunes(tc.s, tc.max); got != tc.want {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tc.s, tc.max, got, tc.want)
		}
	}
}

func TestTruncateWidth_CJK(t *testing.T) {
	// Each CJK character is two columns wide.
	s := "日本語テスト"
	got := TruncateWidth(s, 7)

	if StringWidth(got) > 7 {
		t.Errorf("TruncateWidth(%q, 7) = %q, width %d", s, got, StringWidth(got))
	}

	if TruncateWidth("short", 20) != "short" {
		t.Error("strings under the limit should pass through unchanged")
	}
}

func TestPadRight(t *testing.T) {
	if got := PadRight("ab", 5); got != "ab   " {
		t.Errorf("PadRight = %q", got)
	}
}

func TestStringWidth(t *testing.T) {
	if got := StringWidth("日本"); got != 4 {
		t.Errorf("StringWidth(日本) = %d, want 4", got)
	}
	if got := StringWidth("abc"); got != 3 {
		t.Errorf("StringWidth(abc) = %d, want 3", got)
	}
}

func TestRuneLen(t *testing.T) {
	if got := RuneLen("héllo"); got != 5 {
		t.Errorf("RuneLen(héllo) = %d, want 5", got)
	}
}
