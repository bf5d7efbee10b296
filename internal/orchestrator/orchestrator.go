// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator coordinates direct queries and fan-out queries
// against the mesh gateway, and aggregates peer replies into a summary.
//
// The orchestrator is a pure coordination core: it owns no UI. All visible
// effects flow through the Sink interface, so the whole submit/poll/
// aggregate pipeline is testable without a rendering surface. Cancellation
// is cooperative: the context is checked before every sink mutation, so a
// superseded operation's late results are never applied.
package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"github.com/jeranaias/meshchat-tui/internal/gateway"
)

type gatewayReply = gateway.PeerReply

// User-facing slot text. GatheringText is the placeholder shown while a
// fan-out waits for replies; the other two are terminal.
const (
	GatheringText   = "Gathering peer responses..."
	NoResponsesText = "No responses received from peers."
	SummarizeFailed = "Failed to summarize responses."
)

// =============================================================================
// INTERFACES
// =============================================================================

// Gateway is the remote surface the orchestrator drives.
// *gateway.Client satisfies it.
type Gateway interface {
	Query(ctx context.Context, message string, callback gateway.ChunkCallback) error
	SubmitFanout(ctx context.Context, message string, peers []string) (string, error)
	PollReplies(ctx context.Context, promptID string) ([]gateway.PeerReply, error)
	Summarize(ctx context.Context, responses []gateway.SummaryInput, callback gateway.ChunkCallback) error
}

// Sink receives the orchestrator's typed events. The presentation layer
// implements it; implementations must be safe to call from the operation
// goroutine.
//
// slotID identifies one assistant slot: the prompt ID for fan-out queries,
// a generated ID for direct queries.
type Sink interface {
	// SlotOpened announces a fresh assistant slot. handle is nil for
	// direct queries.
	SlotOpened(slotID string, handle *QueryHandle)
	// SlotText replaces the slot content with the latest full text.
	SlotText(slotID string, full string)
	// SlotCounter updates the replied/total indicator of a fan-out slot.
	SlotCounter(slotID string, replied, total int)
	// SlotFinalized marks the slot's streaming complete.
	SlotFinalized(slotID string)
	// SlotFailed ends the slot with a user-facing error bubble.
	SlotFailed(slotID string, userMsg string)
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator drives the direct-query and fan-out paths.
type Orchestrator struct {
	gw   Gateway
	sink Sink
	poll PollConfig
}

// New creates an orchestrator.
func New(gw Gateway, sink Sink, poll PollConfig) *Orchestrator {
	if poll.MaxAttempts <= 0 {
		poll = DefaultPollConfig()
	}
	return &Orchestrator{gw: gw, sink: sink, poll: poll}
}

// Submit dispatches one outbound message: a streamed direct query when no
// peers are addressed, otherwise a fan-out followed by polling and
// aggregation. Blocking; run it inside a supervised operation.
//
// A context cancellation error means the operation was superseded and must
// terminate silently; any other error has already been surfaced through the
// sink where a slot existed.
func (o *Orchestrator) Submit(ctx context.Context, msg OutboundMessage) error {
	if !msg.IsFanout() {
		return o.direct(ctx, msg.Text)
	}
	return o.fanout(ctx, msg)
}

// Refresh re-polls a fan-out's replies and re-runs aggregation into the
// same slot. Safe to invoke repeatedly; callers key it through the
// supervisor so overlapping refreshes supersede each other.
func (o *Orchestrator) Refresh(ctx context.Context, handle QueryHandle) error {
	records, err := o.Poll(ctx, handle)
	if err != nil {
		return err
	}
	return o.aggregate(ctx, handle, records)
}

// =============================================================================
// DIRECT QUERY PATH
// =============================================================================

func (o *Orchestrator) direct(ctx context.Context, text string) error {
	slotID := uuid.NewString()
	o.sink.SlotOpened(slotID, nil)

	err := o.gw.Query(ctx, text, func(full string) {
		if ctx.Err() == nil {
			o.sink.SlotText(slotID, full)
		}
	})
	if err != nil {
		if gateway.IsCancelled(err) || ctx.Err() != nil {
			return ctx.Err()
		}
		o.sink.SlotFailed(slotID, UserFacing(err))
		return err
	}

	o.sink.SlotFinalized(slotID)
	return nil
}

// =============================================================================
// FAN-OUT PATH
// =============================================================================

func (o *Orchestrator) fanout(ctx context.Context, msg OutboundMessage) error {
	promptID, err := o.gw.SubmitFanout(ctx, msg.Text, msg.Peers)
	if err != nil {
		if gateway.IsCancelled(err) || ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	handle := QueryHandle{PromptID: promptID, Peers: msg.Peers}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	o.sink.SlotOpened(promptID, &handle)
	o.sink.SlotText(promptID, GatheringText)
	o.sink.SlotCounter(promptID, 0, len(msg.Peers))

	records, err := o.Poll(ctx, handle)
	if err != nil {
		return err
	}

	return o.aggregate(ctx, handle, records)
}

// aggregate updates the counter, then either summarizes the successful
// subset into the slot or writes a terminal no-responses message.
//
// A summarize failure degrades to fallback text rather than an error: the
// fan-out itself succeeded, so the interaction returns to idle.
func (o *Orchestrator) aggregate(ctx context.Context, handle QueryHandle, records RecordSet) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	slotID := handle.PromptID
	o.sink.SlotCounter(slotID, records.RepliedCount(), len(records))

	responded := records.RespondedSubset()
	if len(responded) == 0 {
		o.sink.SlotText(slotID, NoResponsesText)
		o.sink.SlotFinalized(slotID)
		return nil
	}

	inputs := make([]gateway.SummaryInput, 0, len(responded))
	for _, r := range responded {
		inputs = append(inputs, gateway.SummaryInput{FromPeer: r.Peer, Response: r.Text})
	}

	err := o.gw.Summarize(ctx, inputs, func(full string) {
		if ctx.Err() == nil {
			o.sink.SlotText(slotID, full)
		}
	})
	if err != nil {
		if gateway.IsCancelled(err) || ctx.Err() != nil {
			return ctx.Err()
		}
		o.sink.SlotText(slotID, SummarizeFailed)
	}

	o.sink.SlotFinalized(slotID)
	return nil
}

// =============================================================================
// ERROR PRESENTATION
// =============================================================================

// UserFacing maps a gateway error to the message shown in the chat.
func UserFacing(err error) string {
	switch {
	case gateway.IsNotRunning(err):
		return "Cannot reach the mesh gateway. Is it running?"
	case gateway.IsTimeout(err):
		return "The gateway took too long to respond."
	default:
		return "Query failed: " + err.Error()
	}
}
