// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway provides the HTTP client for communicating with the mesh gateway API.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://127.0.0.1:8080", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Greater(t, cfg.PollRate, 0.0)
}

func TestNewClientWithConfig_FillsDefaults(t *testing.T) {
	c := NewClientWithConfig(&ClientConfig{})

	assert.Equal(t, "http://127.0.0.1:8080", c.BaseURL())
	assert.Equal(t, 30*time.Second, c.GetConfig().Timeout)
}

func TestNewClientWithConfig_NilUsesDefaults(t *testing.T) {
	c := NewClientWithConfig(nil)
	assert.Equal(t, "http://127.0.0.1:8080", c.BaseURL())
}

// =============================================================================
// TEST HELPERS
// =============================================================================

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.PollRate = 1000 // tests should not wait on the limiter
	return NewClientWithConfig(cfg), srv
}

// =============================================================================
// HEALTH CHECK TESTS
// =============================================================================

func TestCheckRunning_OK(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, c.CheckRunning(context.Background()))
}

func TestCheckRunning_Unreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "http://127.0.0.1:1" // nothing listens here
	c := NewClientWithConfig(cfg)

	err := c.CheckRunning(context.Background())
	require.Error(t, err)
	assert.True(t, IsNotRunning(err))
}

// =============================================================================
// PEER LISTING TESTS
// =============================================================================

func TestListPeers(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/peers", r.URL.Path)
		json.NewEncoder(w).Encode(PeerList{
			Online:  []string{"alice", "bob"},
			Offline: []string{"carol"},
		})
	}))

	peers, err := c.ListPeers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, peers.Online)
	assert.Equal(t, []string{"carol"}, peers.Offline)
}

// =============================================================================
// DIRECT QUERY TESTS
// =============================================================================

func TestQuery_StreamsChunks(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/query", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req QueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Message)

		w.Write([]byte(`{"type":"start","status":"success"}` + "\n"))
		w.Write([]byte(`{"type":"chunk","content":"Hel"}` + "\n"))
		w.Write([]byte(`{"type":"chunk","content":"lo"}` + "\n"))
	}))

	var calls []string
	err := c.Query(context.Background(), "hello", func(full string) {
		calls = append(calls, full)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "Hello"}, calls)
}

func TestQuery_ErrorFrame(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"model offline"}` + "\n"))
	}))

	err := c.Query(context.Background(), "hello", func(string) {
		t.Error("callback should not run for an error-only stream")
	})

	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.Equal(t, "model offline", streamErr.Message)
}

func TestQuery_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"chunk","content":"x"}` + "\n"))
	}))

	err := c.Query(ctx, "hello", func(string) {})
	require.Error(t, err)
	assert.True(t, IsCancelled(err))
}

// =============================================================================
// FAN-OUT TESTS
// =============================================================================

func TestSubmitFanout(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/fanout", r.URL.Path)

		var req FanoutRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"alice", "bob"}, req.Peers)

		json.NewEncoder(w).Encode(FanoutResponse{Status: "success", PromptID: "p-123"})
	}))

	promptID, err := c.SubmitFanout(context.Background(), "hi all", []string{"alice", "bob"})
	require.NoError(t, err)
	assert.Equal(t, "p-123", promptID)
}

func TestSubmitFanout_Rejected(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(FanoutResponse{Status: "queued"})
	}))

	_, err := c.SubmitFanout(context.Background(), "hi", []string{"alice"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestSubmitFanout_GatewayErrorPayload(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(GatewayError{Error: "unknown peer: mallory"})
	}))

	_, err := c.SubmitFanout(context.Background(), "hi", []string{"mallory"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown peer: mallory")
}

func TestPollReplies(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/replies/p-123", r.URL.Path)
		json.NewEncoder(w).Encode(RepliesResponse{Responses: []PeerReply{
			{FromPeer: "alice", Type: "response", Response: "hi back"},
			{FromPeer: "bob", Type: "error", Error: "timeout"},
		}})
	}))

	replies, err := c.PollReplies(context.Background(), "p-123")
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "alice", replies[0].FromPeer)
	assert.Equal(t, "response", replies[0].Type)
	assert.Equal(t, "error", replies[1].Type)
}

// =============================================================================
// SUMMARIZE TESTS
// =============================================================================

func TestSummarize_Streams(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/summarize", r.URL.Path)

		var req SummarizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Responses, 1)
		assert.Equal(t, "alice", req.Responses[0].FromPeer)

		w.Write([]byte(`{"type":"chunk","content":"Summary."}` + "\n"))
	}))

	var got string
	err := c.Summarize(context.Background(), []SummaryInput{
		{FromPeer: "alice", Response: "hi back"},
	}, func(full string) { got = full })

	require.NoError(t, err)
	assert.Equal(t, "Summary.", got)
}

// =============================================================================
// CLEAR TESTS
// =============================================================================

func TestClearConversation(t *testing.T) {
	var called bool
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		require.Equal(t, "/api/clear", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		json.NewEncoder(w).Encode(ClearResponse{Status: "success"})
	}))

	require.NoError(t, c.ClearConversation(context.Background()))
	assert.True(t, called)
}

// =============================================================================
// ERROR HELPER TESTS
// =============================================================================

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsNotRunning(ErrNotRunning))
	assert.True(t, IsTimeout(ErrTimeout))
	assert.False(t, IsNotRunning(ErrTimeout))
	assert.True(t, IsCancelled(context.Canceled))
	assert.False(t, IsCancelled(ErrTimeout))

	wrapped := &ClientError{Type: ErrTypeTimeout, Message: "slow", Cause: context.DeadlineExceeded}
	assert.True(t, IsTimeout(wrapped))
	assert.Contains(t, wrapped.Error(), "slow")
}
