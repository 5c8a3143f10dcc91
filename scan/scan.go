// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package scan

import (
	"context"

	"github.com/siemens/subdig/metrics"
	"github.com/siemens/subdig/resolver"
	"github.com/siemens/subdig/types"

	"github.com/gammazero/workerpool"
	log "github.com/sirupsen/logrus"
)

// DefaultSize is the default number of concurrent lookups.
const DefaultSize = 20

// Scanner resolves lists of candidate names with a limited number of
// concurrent lookups, and aggregates the outcomes into a [types.Result].
type Scanner struct {
	size     int
	resolver resolver.Resolver
	observer func(types.Outcome)
	metrics  *metrics.Collector
}

// Option can be passed to New when creating new [Scanner] objects.
type Option func(*Scanner)

// New returns a new Scanner running at most size lookups at any time, using
// the specified resolver. Sizes less than one are raised to one. A nil
// resolver means the platform's resolver.
func New(size int, r resolver.Resolver, options ...Option) *Scanner {
	if size < 1 {
		size = 1
	}
	if r == nil {
		r = resolver.System
	}
	s := &Scanner{
		size:     size,
		resolver: r,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// WithObserver sets a function that gets called once for each outcome as it
// arrives. The observer is always called from the same goroutine that is
// running Run, so it never gets called concurrently.
func WithObserver(fn func(types.Outcome)) Option {
	return func(s *Scanner) {
		s.observer = fn
	}
}

// WithMetrics instruments the lookups of a Scanner.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Scanner) {
		s.metrics = m
	}
}

// Size returns the maximum number of concurrent lookups.
func (s *Scanner) Size() int { return s.size }

// Run resolves all candidate labels in the specified domain and returns the
// aggregated result after all lookups have completed. The order of the live
// outcomes reflects the order in which the lookups completed.
//
// When the context gets cancelled, lookups not yet started are abandoned and
// Run returns as soon as the lookups in flight have completed. Run then returns
// the partial result so far together with the context's error. Lookups already
// in flight are not cut short, so their outcomes stay accurate.
func (s *Scanner) Run(ctx context.Context, domain string, candidates []string) (*types.Result, error) {
	result := types.NewResult(domain)
	if len(candidates) == 0 {
		return result, nil
	}
	log.WithFields(log.Fields{
		"domain":     domain,
		"candidates": len(candidates),
		"workers":    s.size,
	}).Debug("starting scan")

	// The workers only ever send their outcomes into this completion channel,
	// while we are its only consumer and thus the only one ever touching the
	// result.
	outcomes := make(chan types.Outcome, s.size)
	lookupctx := context.WithoutCancel(ctx)
	workers := workerpool.New(s.size)
	s.metrics.Submitted(len(candidates))
	for _, label := range candidates {
		label := label
		workers.Submit(func() {
			// Lookups that were still queued when the context got cancelled
			// are skipped without any outcome.
			if ctx.Err() != nil {
				return
			}
			outcomes <- s.metrics.Track(func() types.Outcome {
				return resolver.Resolve(lookupctx, s.resolver, label, domain)
			})
		})
	}

	for pending := len(candidates); pending > 0; pending-- {
		select {
		case o := <-outcomes:
			s.merge(result, o)
		case <-ctx.Done():
			s.drain(workers, outcomes, result)
			log.WithFields(log.Fields{
				"domain": domain,
				"done":   result.Total(),
			}).Debug("scan cancelled")
			return result, ctx.Err()
		}
	}
	workers.StopWait()
	log.WithFields(log.Fields{
		"domain": domain,
		"live":   len(result.Live),
		"dead":   result.Dead,
	}).Debug("scan completed")
	return result, nil
}

// merge a single outcome into the result and tell the observer, if any.
func (s *Scanner) merge(result *types.Result, o types.Outcome) {
	result.Add(o)
	if s.observer != nil {
		s.observer(o)
	}
}

// drain abandons all queued lookups, waits for the lookups in flight to
// complete and merges their outcomes.
func (s *Scanner) drain(workers *workerpool.WorkerPool, outcomes chan types.Outcome, result *types.Result) {
	go func() {
		workers.Stop()
		close(outcomes)
	}()
	for o := range outcomes {
		s.merge(result, o)
	}
}
