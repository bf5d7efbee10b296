// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Mesh"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation. Assistant messages
// double as aggregation slots for fan-out queries: the same slot shows the
// "gathering" placeholder, the reply counter, and finally the streamed
// summary.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content. While IsStreaming is true the decoder replaces Content
	// wholesale with the latest full accumulated text on every chunk.
	Content     string `json:"content"`
	IsStreaming bool   `json:"-"`

	// Aggregation slot state (fan-out queries only)
	PromptID  string   `json:"prompt_id,omitempty"`
	Peers     []string `json:"peers,omitempty"`
	Responded int      `json:"responded,omitempty"`
	Total     int      `json:"total,omitempty"`

	// Addressed peers of a user message, first-mention order.
	Mentions []string `json:"mentions,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string, mentions []string) *Message {
	msg := NewMessage(RoleUser, content)
	msg.Mentions = mentions
	return msg
}

// NewAssistantMessage creates a new streaming assistant message.
func NewAssistantMessage() *Message {
	return &Message{
		ID:          uuid.NewString(),
		Role:        RoleAssistant,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// NewAggregationMessage creates an assistant message that acts as the
// aggregation slot for a fan-out query.
func NewAggregationMessage(promptID string, peers []string) *Message {
	msg := NewAssistantMessage()
	msg.PromptID = promptID
	msg.Peers = peers
	msg.Total = len(peers)
	return msg
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// SetStreamText replaces the content with the latest full accumulated text.
func (m *Message) SetStreamText(full string) {
	if m.IsStreaming {
		m.Content = full
	}
}

// FinalizeStream marks the streaming message complete.
func (m *Message) FinalizeStream() {
	m.IsStreaming = false
}

// IsAggregation reports whether the message is a fan-out aggregation slot.
func (m *Message) IsAggregation() bool {
	return m.PromptID != ""
}

// SetCounter updates the replied/total counter for an aggregation slot.
func (m *Message) SetCounter(responded, total int) {
	m.Responded = responded
	m.Total = total
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	runes := []rune(m.Content)
	if len(runes) <= maxLen {
		return m.Content
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0
}
