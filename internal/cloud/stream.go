// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"encoding/json"
	"io"
	"strings"
)

// STREAMING: Robust SSE parsing with error handling

// =============================================================================
// FRAMES
// =============================================================================

// FrameKind identifies one parsed unit of the event stream.
type FrameKind int

const (
	// FrameDelta carries an incremental fragment of assistant text.
	FrameDelta FrameKind = iota
	// FrameDone marks the [DONE] terminal sentinel.
	FrameDone
	// frameSkip marks a malformed or ignorable line. Skips are per-line and
	// silently dropped; they never surface outside the demultiplexer.
	frameSkip
)

// Frame is one parsed unit of the event stream.
type Frame struct {
	Kind FrameKind
	Text string
}

// deltaChunk mirrors the relevant slice of a streaming completion event.
type deltaChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// =============================================================================
// STREAM DEMULTIPLEXER
// =============================================================================

// dataPrefix is the six-character SSE field prefix carrying event payloads.
const dataPrefix = "data: "

// doneSentinel is the payload that terminates the stream.
const doneSentinel = "[DONE]"

// Demux reassembles newline-delimited SSE frames from arbitrary byte chunks.
//
// Feed is called once per chunk as bytes arrive; a trailing partial line is
// carried over to the next call, so the emitted Delta sequence is identical
// for every chunk splitting of the same bytes. After the [DONE] sentinel the
// demux latches: all further input is ignored.
type Demux struct {
	carry strings.Builder
	done  bool
}

// NewDemux creates a demultiplexer with an empty carry-over buffer.
func NewDemux() *Demux {
	return &Demux{}
}

// Done reports whether the [DONE] sentinel has been seen.
func (d *Demux) Done() bool { return d.done }

// Feed appends a chunk to the carry-over buffer and returns the frames
// completed by it. Malformed lines are skipped, never returned as errors:
// partial JSON fragments are expected transiently while streaming.
func (d *Demux) Feed(chunk []byte) []Frame {
	if d.done {
		return nil
	}
	d.carry.Write(chunk)

	buf := d.carry.String()
	var frames []Frame
	for {
		i := strings.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		line := buf[:i]
		buf = buf[i+1:]

		frame := parseLine(line)
		switch frame.Kind {
		case FrameDone:
			// Latch: bytes after the sentinel are never parsed.
			d.done = true
			d.carry.Reset()
			return append(frames, frame)
		case FrameDelta:
			if frame.Text != "" {
				frames = append(frames, frame)
			}
		}
	}

	d.carry.Reset()
	d.carry.WriteString(buf)
	return frames
}

// Close flushes a trailing unterminated line when the byte stream ends
// without a [DONE] sentinel. Natural end of stream is normal completion.
func (d *Demux) Close() []Frame {
	if d.done || d.carry.Len() == 0 {
		return nil
	}
	line := d.carry.String()
	d.carry.Reset()

	frame := parseLine(line)
	switch frame.Kind {
	case FrameDone:
		d.done = true
		return []Frame{frame}
	case FrameDelta:
		if frame.Text != "" {
			return []Frame{frame}
		}
	}
	return nil
}

// parseLine classifies a single reassembled line.
func parseLine(line string) Frame {
	line = strings.TrimSuffix(line, "\r")

	if !strings.HasPrefix(line, dataPrefix) {
		return Frame{Kind: frameSkip}
	}
	payload := line[len(dataPrefix):]

	if payload == doneSentinel {
		return Frame{Kind: FrameDone}
	}

	var chunk deltaChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		// Skip malformed lines.
		return Frame{Kind: frameSkip}
	}
	if len(chunk.Choices) == 0 {
		return Frame{Kind: frameSkip}
	}
	return Frame{Kind: FrameDelta, Text: chunk.Choices[0].Delta.Content}
}

// =============================================================================
// STREAM CONSUMPTION
// =============================================================================

// DeltaFunc receives each incremental fragment of assistant text.
type DeltaFunc func(text string)

// drainStream reads the response body chunk by chunk, feeds the
// demultiplexer, and invokes onDelta for every delta frame. It returns on
// the [DONE] sentinel, on natural end of stream, or when ctx is cancelled.
func drainStream(ctx context.Context, body io.Reader, onDelta DeltaFunc) error {
	demux := NewDemux()
	buf := make([]byte, 4096)

	deliver := func(frames []Frame) bool {
		for _, f := range frames {
			switch f.Kind {
			case FrameDelta:
				onDelta(f.Text)
			case FrameDone:
				return true
			}
		}
		return false
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := body.Read(buf)
		if n > 0 {
			if deliver(demux.Feed(buf[:n])) {
				return nil
			}
		}
		if err != nil {
			if err == io.EOF {
				deliver(demux.Close())
				return nil
			}
			return err
		}
	}
}

// =============================================================================
// STREAM ACCUMULATOR
// =============================================================================

// Accumulator collects delta fragments into the full response text.
// strings.Builder keeps appends linear for long replies.
type Accumulator struct {
	content strings.Builder
	deltas  int
}

// Add appends one delta fragment.
func (a *Accumulator) Add(text string) {
	if text == "" {
		return
	}
	a.content.WriteString(text)
	a.deltas++
}

// Content returns the accumulated response text.
func (a *Accumulator) Content() string { return a.content.String() }

// Deltas returns the number of non-empty fragments received.
func (a *Accumulator) Deltas() int { return a.deltas }

// Empty reports whether nothing has been accumulated.
func (a *Accumulator) Empty() bool { return a.content.Len() == 0 }
