// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// =============================================================================
// THINKING INDICATOR
// =============================================================================

// thinkingInterval is the delay between printed dots.
const thinkingInterval = 500 * time.Millisecond

// Indicator prints a dot to w on a timer while waiting for the first
// response byte. Purely cosmetic: it is cancelled unconditionally once the
// first delta arrives, or on error.
type Indicator struct {
	w    io.Writer
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// StartIndicator begins the dot ticker on w.
func StartIndicator(w io.Writer) *Indicator {
	ind := &Indicator{
		w:    w,
		done: make(chan struct{}),
	}

	ind.wg.Add(1)
	go func() {
		defer ind.wg.Done()
		ticker := time.NewTicker(thinkingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ind.done:
				return
			case <-ticker.C:
				fmt.Fprint(ind.w, ".")
			}
		}
	}()

	return ind
}

// Stop cancels the ticker and erases the dots line. Safe to call more than
// once and from the streaming callback.
func (i *Indicator) Stop() {
	i.once.Do(func() {
		close(i.done)
		i.wg.Wait()
		// Erase the dots so streamed output starts on a clean line.
		fmt.Fprint(i.w, "\r\x1b[2K")
	})
}
