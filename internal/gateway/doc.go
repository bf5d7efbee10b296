// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway provides the HTTP client for communicating with the mesh gateway API.
//
// The mesh gateway is a local HTTP service that fronts a network of named
// AI peers. This package implements the client for direct streaming queries,
// fan-out submissions, reply polling, and reply summarization.
//
// # Key Types
//
//   - Client: HTTP client for gateway API communication
//   - StreamDecoder: incremental NDJSON decoder for streaming responses
//   - PeerReply: one peer's answer as reported by the replies endpoint
//   - ClientError: typed error with an ErrorType category
//
// # Usage
//
// Create a client and send a direct query:
//
//	client := gateway.NewClient()
//	err := client.Query(ctx, "Hello", func(full string) {
//	    // full is the complete accumulated text so far
//	})
//
// For fan-out across peers:
//
//	promptID, err := client.SubmitFanout(ctx, "Hello", []string{"alice", "bob"})
//	replies, err := client.PollReplies(ctx, promptID)
//
// # Streaming
//
// Streaming endpoints emit newline-delimited JSON frames. The StreamDecoder
// buffers bytes until a complete line is available, so multi-byte UTF-8
// sequences split across reads are never corrupted. Chunk callbacks always
// receive the full accumulated text, not a delta.
package gateway
