// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator coordinates direct queries and fan-out queries
// against the mesh gateway, and aggregates peer replies into a summary.
package orchestrator

import (
	"context"
	"time"
)

// =============================================================================
// POLL CONFIGURATION
// =============================================================================

// PollConfig bounds the reply-polling loop.
type PollConfig struct {
	// InitialDelay before the first poll request.
	InitialDelay time.Duration
	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration
	// MaxAttempts bounds the loop; exhaustion is "no peers responded",
	// not an error.
	MaxAttempts int
	// Multiplier grows the delay between attempts.
	Multiplier float64
}

// DefaultPollConfig returns the standard backoff schedule.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		MaxAttempts:  10,
		Multiplier:   1.5,
	}
}

// =============================================================================
// POLLING
// =============================================================================

// Poll runs the bounded backoff loop for a fan-out's replies.
//
// The loop returns as soon as the gateway reports ANY reply, synthesizing
// Pending records for peers that have not answered. It deliberately does not
// wait for the full peer set or a quiet period; returning on the first
// observed reply is the intended user-visible timing.
//
// Per-attempt request errors consume the attempt and continue. Exhausting
// all attempts returns an all-Pending record set and a nil error. Only
// context cancellation aborts the loop.
func (o *Orchestrator) Poll(ctx context.Context, handle QueryHandle) (RecordSet, error) {
	delay := o.poll.InitialDelay

	for attempt := 0; attempt < o.poll.MaxAttempts; attempt++ {
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay = time.Duration(float64(delay) * o.poll.Multiplier)
		if delay > o.poll.MaxDelay {
			delay = o.poll.MaxDelay
		}

		replies, err := o.gw.PollReplies(ctx, handle.PromptID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// No new data this round; the attempt still counts.
			continue
		}

		if len(replies) > 0 {
			return buildRecords(handle.Peers, replies), nil
		}
	}

	return allPending(handle.Peers), nil
}

// buildRecords merges the gateway's reply list with the addressed peer set,
// producing exactly one record per addressed peer in address order. Replies
// from peers outside the addressed set are dropped.
func buildRecords(peers []string, replies []gatewayReply) RecordSet {
	byPeer := make(map[string]gatewayReply, len(replies))
	for _, r := range replies {
		byPeer[r.FromPeer] = r
	}

	records := make(RecordSet, 0, len(peers))
	for _, peer := range peers {
		reply, ok := byPeer[peer]
		if !ok {
			records = append(records, Pending(peer))
			continue
		}
		switch reply.Type {
		case "response":
			records = append(records, Responded(peer, reply.Response))
		case "error":
			records = append(records, Failed(peer, reply.Error))
		default:
			records = append(records, Failed(peer, "unrecognized reply type: "+reply.Type))
		}
	}
	return records
}

func allPending(peers []string) RecordSet {
	records := make(RecordSet, 0, len(peers))
	for _, peer := range peers {
		records = append(records, Pending(peer))
	}
	return records
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
