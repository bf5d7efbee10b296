// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the meshchat TUI.
//
// This file defines the Bubble Tea message types used by the chat interface.
// Slot messages are bridged in from the orchestrator goroutine through the
// program sink; the rest originate from commands and background checks.
package chat

import (
	"github.com/jeranaias/meshchat-tui/internal/orchestrator"
)

// =============================================================================
// SLOT MESSAGES
// =============================================================================

// SlotOpenedMsg announces a fresh assistant slot in the transcript.
// Handle is nil for direct queries.
type SlotOpenedMsg struct {
	SlotID string
	Handle *orchestrator.QueryHandle
}

// SlotTextMsg replaces a slot's content with the latest full text.
type SlotTextMsg struct {
	SlotID string
	Full   string
}

// SlotCounterMsg updates the replied/total indicator of a fan-out slot.
type SlotCounterMsg struct {
	SlotID  string
	Replied int
	Total   int
}

// SlotFinalizedMsg marks a slot's streaming complete.
type SlotFinalizedMsg struct {
	SlotID string
}

// SlotFailedMsg ends a slot with a user-facing error message.
type SlotFailedMsg struct {
	SlotID  string
	UserMsg string
}

// =============================================================================
// OPERATION MESSAGES
// =============================================================================

// QueryDoneMsg reports completion of a supervised submit or refresh.
// Err is nil on success and on cancellation; cancellation is never surfaced.
type QueryDoneMsg struct {
	UserMsg string
}

// ErrorDismissMsg auto-dismisses the error banner. Seq guards against a
// stale tick dismissing a newer error.
type ErrorDismissMsg struct {
	Seq int
}

// =============================================================================
// GATEWAY MESSAGES
// =============================================================================

// GatewayStatusMsg reports the result of a gateway health check.
type GatewayStatusMsg struct {
	Running bool
}

// PeersLoadedMsg delivers the peer roster from the gateway.
type PeersLoadedMsg struct {
	Online  []string
	Offline []string
	Err     error
	// Announce controls whether the roster is written into the transcript.
	// The startup load is silent; /peers is not.
	Announce bool
}

// ClearDoneMsg reports the result of clearing the gateway conversation.
type ClearDoneMsg struct {
	Err error
}

// ConfigReloadedMsg signals that the config file changed on disk.
type ConfigReloadedMsg struct{}
