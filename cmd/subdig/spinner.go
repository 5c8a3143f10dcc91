// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// Yet another (braille) spinner.

package main

import (
	"context"
	"sync"
	"time"
)

var spinnerPhases = []string{"⠉", "⠘", "⠰", "⠤", "⠆", "⠃"}

// spinner cycles through its braille phases, either by calling Step
// explicitly or by running it with Spin.
type spinner struct {
	mu    sync.Mutex
	phase int
}

// String returns the current phase, followed by a single space.
func (s *spinner) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return spinnerPhases[s.phase] + " "
}

// Step advances the spinner to its next phase.
func (s *spinner) Step() {
	s.mu.Lock()
	s.phase = (s.phase + 1) % len(spinnerPhases)
	s.mu.Unlock()
}

// Spin steps the spinner every interval, calling render after each step,
// until the context is done.
func (s *spinner) Spin(ctx context.Context, interval time.Duration, render func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Step()
			render()
		case <-ctx.Done():
			return
		}
	}
}
