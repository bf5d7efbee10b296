// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator coordinates direct queries and fan-out queries
// against the mesh gateway, and aggregates peer replies into a summary.
package orchestrator

// =============================================================================
// OUTBOUND MESSAGE
// =============================================================================

// OutboundMessage is one user submission. Constructed once per submit and
// immutable afterward. Peers is the addressed set in first-mention order,
// duplicates removed.
type OutboundMessage struct {
	Text  string
	Peers []string
}

// IsFanout reports whether the message addresses any peers.
func (m OutboundMessage) IsFanout() bool {
	return len(m.Peers) > 0
}

// =============================================================================
// QUERY HANDLE
// =============================================================================

// QueryHandle correlates a fan-out submission with its reply polling and
// refresh operations. It lives as long as its aggregation slot exists and is
// discarded when the conversation is cleared.
type QueryHandle struct {
	PromptID string
	Peers    []string
}

// =============================================================================
// PEER REPLY RECORDS
// =============================================================================

// ReplyKind discriminates the closed set of peer reply outcomes.
type ReplyKind int

const (
	// KindPending: the peer has not replied yet.
	KindPending ReplyKind = iota
	// KindResponded: the peer replied with content.
	KindResponded
	// KindFailed: the peer replied with an error payload.
	KindFailed
)

func (k ReplyKind) String() string {
	switch k {
	case KindResponded:
		return "responded"
	case KindFailed:
		return "failed"
	default:
		return "pending"
	}
}

// PeerReplyRecord is one peer's outcome within a poll cycle. A record set
// covers the addressed peer set exactly once each; sets are recomputed on
// every poll cycle and refresh, never mutated in place.
type PeerReplyRecord struct {
	Kind    ReplyKind
	Peer    string
	Text    string // KindResponded only
	ErrText string // KindFailed only
}

// Responded constructs a successful reply record.
func Responded(peer, text string) PeerReplyRecord {
	return PeerReplyRecord{Kind: KindResponded, Peer: peer, Text: text}
}

// Failed constructs an errored reply record.
func Failed(peer, errText string) PeerReplyRecord {
	return PeerReplyRecord{Kind: KindFailed, Peer: peer, ErrText: errText}
}

// Pending constructs a not-yet-replied record.
func Pending(peer string) PeerReplyRecord {
	return PeerReplyRecord{Kind: KindPending, Peer: peer}
}

// RecordSet is the outcome of one poll cycle, one record per addressed peer.
type RecordSet []PeerReplyRecord

// RepliedCount returns how many peers have replied at all, successfully or
// with an error. This is the "x" of the "x/N" indicator.
func (rs RecordSet) RepliedCount() int {
	n := 0
	for _, r := range rs {
		if r.Kind != KindPending {
			n++
		}
	}
	return n
}

// RespondedSubset returns only the successful replies, the input to
// summarization.
func (rs RecordSet) RespondedSubset() []PeerReplyRecord {
	var out []PeerReplyRecord
	for _, r := range rs {
		if r.Kind == KindResponded {
			out = append(out, r)
		}
	}
	return out
}
