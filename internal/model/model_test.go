// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import "testing"

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("hi @alice", []string{"alice"})

	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want user", msg.Role)
	}
	if msg.Content != "hi @alice" {
		t.Errorf("Content = %q", msg.Content)
	}
	if len(msg.Mentions) != 1 || msg.Mentions[0] != "alice" {
		t.Errorf("Mentions = %v", msg.Mentions)
	}
	if msg.ID == "" {
		t.Error("ID should be generated")
	}
}

func TestNewAssistantMessage_Streams(t *testing.T) {
	msg := NewAssistantMessage()

	if !msg.IsStreaming {
		t.Error("new assistant message should be streaming")
	}

	msg.SetStreamText("Hel")
	msg.SetStreamText("Hello")
	if msg.Content != "Hello" {
		t.Errorf("Content = %q, want 'Hello'", msg.Content)
	}

	msg.FinalizeStream()
	if msg.IsStreaming {
		t.Error("IsStreaming should be false after FinalizeStream")
	}

	// Late stream text after finalization is dropped.
	msg.SetStreamText("Hello again")
	if msg.Content != "Hello" {
		t.Errorf("Content = %q after late write, want 'Hello'", msg.Content)
	}
}

func TestNewAggregationMessage(t *testing.T) {
	msg := NewAggregationMessage("p-1", []string{"alice", "bob"})

	if !msg.IsAggregation() {
		t.Error("IsAggregation() = false")
	}
	if msg.Total != 2 {
		t.Errorf("Total = %d, want 2", msg.Total)
	}
	if msg.Responded != 0 {
		t.Errorf("Responded = %d, want 0", msg.Responded)
	}

	msg.SetCounter(1, 2)
	if msg.Responded != 1 {
		t.Errorf("Responded = %d, want 1", msg.Responded)
	}
}

func TestMessage_Preview(t *testing.T) {
	msg := NewMessage(RoleUser, "héllo wörld this is a long message")

	short := msg.Preview(10)
	if len([]rune(short)) != 10 {
		t.Errorf("Preview rune length = %d, want 10", len([]rune(short)))
	}

	full := msg.Preview(100)
	if full != msg.Content {
		t.Errorf("Preview under limit should return full content")
	}
}

func TestRole_DisplayName(t *testing.T) {
	if RoleUser.DisplayName() != "You" {
		t.Errorf("user DisplayName = %q", RoleUser.DisplayName())
	}
	if RoleAssistant.DisplayName() != "Mesh" {
		t.Errorf("assistant DisplayName = %q", RoleAssistant.DisplayName())
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_AddAndLookup(t *testing.T) {
	c := NewConversation()

	user := c.AddUserMessage("hi", nil)
	slot := c.AddAggregationMessage("p-9", []string{"alice"})

	if c.MessageCount() != 2 {
		t.Fatalf("MessageCount() = %d, want 2", c.MessageCount())
	}

	if got := c.GetMessageByID(user.ID); got != user {
		t.Error("GetMessageByID did not find the user message")
	}
	if got := c.GetSlotByPromptID("p-9"); got != slot {
		t.Error("GetSlotByPromptID did not find the slot")
	}
	if got := c.GetSlotByPromptID(""); got != nil {
		t.Error("empty prompt ID should not match")
	}
	if got := c.GetLastMessage(); got != slot {
		t.Error("GetLastMessage should return the slot")
	}
}

func TestConversation_NewestAggregation(t *testing.T) {
	c := NewConversation()

	if c.NewestAggregation() != nil {
		t.Error("empty conversation should have no aggregation slot")
	}

	c.AddAggregationMessage("p-1", []string{"a"})
	newest := c.AddAggregationMessage("p-2", []string{"a", "b"})
	c.AddAssistantMessage()

	if got := c.NewestAggregation(); got != newest {
		t.Errorf("NewestAggregation() PromptID = %q, want p-2", got.PromptID)
	}
}

func TestConversation_ClearHistory(t *testing.T) {
	c := NewConversation()
	c.AddUserMessage("one", nil)
	c.AddUserMessage("two", nil)

	c.ClearHistory()

	if !c.IsEmpty() {
		t.Error("conversation should be empty after ClearHistory")
	}
}

func TestConversation_PrunesOldMessages(t *testing.T) {
	c := NewConversation()
	for i := 0; i < MaxMessages+10; i++ {
		c.AddUserMessage("msg", nil)
	}

	if c.MessageCount() != MaxMessages {
		t.Errorf("MessageCount() = %d, want %d", c.MessageCount(), MaxMessages)
	}
}
