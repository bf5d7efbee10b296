// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway provides the HTTP client for communicating with the mesh gateway API.
package gateway

// =============================================================================
// REQUEST TYPES
// =============================================================================

// QueryRequest is the body of a direct (single-backend) query.
type QueryRequest struct {
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
}

// FanoutRequest is the body of a fan-out submission addressed to named peers.
type FanoutRequest struct {
	Message string   `json:"message"`
	Peers   []string `json:"peers"`
}

// SummarizeRequest carries the successfully-responded subset of peer replies
// to the gateway's summarization endpoint.
type SummarizeRequest struct {
	Responses []SummaryInput `json:"responses"`
}

// SummaryInput is one peer reply forwarded for summarization.
type SummaryInput struct {
	FromPeer string `json:"from_peer"`
	Response string `json:"response"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// FanoutResponse acknowledges a fan-out submission. The gateway returns the
// correlation identifier immediately; it does not block on peer replies.
type FanoutResponse struct {
	Status   string `json:"status"`
	PromptID string `json:"prompt_id"`
}

// PeerReply is one peer's answer as reported by the replies endpoint.
// Only peers that have actually replied appear in the response; the caller
// synthesizes pending entries for the rest.
type PeerReply struct {
	FromPeer string `json:"from_peer"`
	Type     string `json:"type"` // "response" or "error"
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// RepliesResponse is the poll result for a prompt ID.
type RepliesResponse struct {
	Responses []PeerReply `json:"responses"`
}

// PeerList holds the online/offline peer names used to populate the
// mention picker.
type PeerList struct {
	Online  []string `json:"online"`
	Offline []string `json:"offline"`
}

// ClearResponse acknowledges a conversation reset.
type ClearResponse struct {
	Status string `json:"status"`
}

// GatewayError is the error payload the gateway returns on non-2xx responses.
type GatewayError struct {
	Error string `json:"error"`
}

// =============================================================================
// STREAM EVENT
// =============================================================================

// StreamEvent is one newline-terminated JSON frame within a streaming
// response body (direct query or summarize).
//
// Recognized shapes:
//   - {"type":"start","status":"success"}   stream opened
//   - {"type":"chunk","content":"..."}      incremental content
//   - {"status":"error","message":"..."}    terminal error, stop reading
type StreamEvent struct {
	Type    string `json:"type,omitempty"`
	Status  string `json:"status,omitempty"`
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`
}

// IsStart reports whether the event opens a stream.
func (e StreamEvent) IsStart() bool {
	return e.Type == "start" && e.Status == "success"
}

// IsChunk reports whether the event carries incremental content.
func (e StreamEvent) IsChunk() bool {
	return e.Type == "chunk"
}

// IsError reports whether the event terminates the stream with an error.
func (e StreamEvent) IsError() bool {
	return e.Status == "error"
}
