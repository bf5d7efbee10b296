// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway provides the HTTP client for communicating with the mesh gateway API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
)

// =============================================================================
// STREAM DECODER
// =============================================================================

// ChunkCallback is invoked for each chunk event with the FULL accumulated
// content so far. The contract is "replace with latest full text", not
// "append a delta".
type ChunkCallback func(full string)

// StreamError is the terminal error carried by an {"status":"error"} frame.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return e.Message
}

// StreamDecoder incrementally reconstructs message content from a
// newline-delimited JSON event stream.
//
// Bytes are buffered until a complete line (terminated by '\n') is
// available, so a multi-byte UTF-8 character split across two reads is
// never decoded mid-sequence. An unterminated trailing fragment is retained
// and parsed once the stream ends.
type StreamDecoder struct {
	reader io.Reader
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	accumulator strings.Builder
	pending     []byte // buffered bytes of the current unterminated line
	started     bool
	logf        func(format string, args ...any)
}

// NewStreamDecoder creates a decoder for the given stream.
func NewStreamDecoder(r io.Reader) *StreamDecoder {
	return &StreamDecoder{
		reader: r,
		logf:   func(string, ...any) {},
	}
}

// SetLogf installs a logger for skipped malformed frames. The default
// discards them; the TUI must not write to the terminal directly.
func (d *StreamDecoder) SetLogf(logf func(format string, args ...any)) {
	if logf != nil {
		d.logf = logf
	}
}

// Decode reads the stream and calls the callback for each chunk event.
// Blocks until the stream is complete, an error frame arrives, or the
// context is cancelled. After cancellation no further callbacks are made.
func (d *StreamDecoder) Decode(ctx context.Context, callback ChunkCallback) error {
	buf := make([]byte, 4096)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, readErr := d.reader.Read(buf)
		if n > 0 {
			d.pending = append(d.pending, buf[:n]...)

			for {
				idx := bytes.IndexByte(d.pending, '\n')
				if idx < 0 {
					break
				}
				line := d.pending[:idx]
				d.pending = d.pending[idx+1:]

				done, err := d.applyLine(ctx, line, callback)
				if err != nil {
					return err
				}
				if done {
					return nil
				}
			}
		}

		if readErr != nil {
			if readErr == io.EOF {
				return d.finish(ctx, callback)
			}
			return readErr
		}
	}
}

// applyLine parses and applies a single complete line. Returns done=true
// when an error frame terminates the stream early without a Go error
// (the frame's message is returned as a *StreamError instead).
func (d *StreamDecoder) applyLine(ctx context.Context, line []byte, callback ChunkCallback) (done bool, err error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return false, nil
	}

	var event StreamEvent
	if jsonErr := json.Unmarshal(line, &event); jsonErr != nil {
		// Malformed frames are skipped, never fatal.
		d.logf("stream: skipping malformed frame: %v", jsonErr)
		return false, nil
	}

	switch {
	case event.IsError():
		return true, &StreamError{Message: event.Message}

	case event.IsStart():
		d.started = true
		return false, nil

	case event.IsChunk():
		d.accumulator.WriteString(event.Content)
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		callback(d.accumulator.String())
		return false, nil
	}

	// Unknown but well-formed frames are ignored.
	return false, nil
}

// finish applies a valid trailing chunk fragment left over at stream end.
func (d *StreamDecoder) finish(ctx context.Context, callback ChunkCallback) error {
	line := bytes.TrimSpace(d.pending)
	d.pending = nil
	if len(line) == 0 {
		return nil
	}

	var event StreamEvent
	if err := json.Unmarshal(line, &event); err != nil {
		d.logf("stream: discarding unparseable trailing fragment: %v", err)
		return nil
	}
	if event.IsError() {
		return &StreamError{Message: event.Message}
	}
	if event.IsChunk() {
		d.accumulator.WriteString(event.Content)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		callback(d.accumulator.String())
	}
	return nil
}

// Accumulated returns all content received so far.
func (d *StreamDecoder) Accumulated() string {
	return d.accumulator.String()
}

// Started reports whether a start frame has been observed.
func (d *StreamDecoder) Started() bool {
	return d.started
}
