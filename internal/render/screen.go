// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"io"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
)

// =============================================================================
// SCREEN TRACKING
// =============================================================================

// Screen writes raw streamed text while tracking how many terminal rows it
// occupies, so the styled re-render can overwrite it in place. Row counting
// is wrap-aware: a long line occupies extra rows once it exceeds the
// terminal width.
//
// Screen is the only place terminal control sequences are emitted; the
// markdown renderer never touches the terminal.
type Screen struct {
	w     io.Writer
	width int

	// rows counts completed terminal rows above the cursor.
	rows int
	// col counts cells written on the current (unterminated) line.
	col int
}

// NewScreen creates a screen tracker for the given writer and width.
func NewScreen(w io.Writer, width int) *Screen {
	if width <= 0 {
		width = 80
	}
	return &Screen{w: w, width: width}
}

// WriteString emits raw text and advances the row/column bookkeeping.
// The text is expected to be unstyled; this is the phase-1 raw delta path.
func (s *Screen) WriteString(text string) {
	if text == "" {
		return
	}
	io.WriteString(s.w, text)
	for _, r := range text {
		if r == '\n' {
			s.rows += 1 + s.wrapRows()
			s.col = 0
			continue
		}
		s.col += runewidth.RuneWidth(r)
	}
}

// wrapRows returns how many extra rows the current line has wrapped onto.
func (s *Screen) wrapRows() int {
	if s.col <= 0 {
		return 0
	}
	return (s.col - 1) / s.width
}

// Rows returns the total terminal rows the written text occupies.
func (s *Screen) Rows() int {
	if s.col > 0 {
		return s.rows + 1 + s.wrapRows()
	}
	return s.rows
}

// Rewind moves the cursor back to where writing began and clears everything
// below, so the styled re-render replaces the raw text on screen. Counters
// reset; the screen can be reused for the next turn.
func (s *Screen) Rewind() {
	up := s.rows + s.wrapRows()
	io.WriteString(s.w, "\r")
	if up > 0 {
		fmt.Fprintf(s.w, termenv.CSI+termenv.CursorUpSeq, up)
	}
	fmt.Fprintf(s.w, termenv.CSI+termenv.EraseDisplaySeq, 0)
	s.rows = 0
	s.col = 0
}

// WriteLines emits styled lines, one per row. No bookkeeping: the styled
// output is final and never rewound.
func (s *Screen) WriteLines(lines []string) {
	for _, line := range lines {
		io.WriteString(s.w, line)
		io.WriteString(s.w, "\n")
	}
}
