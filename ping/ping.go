// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package ping

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/siemens/subdig/types"

	"github.com/gammazero/workerpool"
	"github.com/go-ping/ping"
	"github.com/thediveo/lxkns/ops"
	"github.com/thediveo/lxkns/ops/relations"
	"github.com/thediveo/lxkns/species"
)

// Pinger probes the addresses of live names by pinging them and then streams
// the final [types.Probe] verdicts to a verdict channel. Pingers use a
// goroutine-limited worker pool.
type Pinger struct {
	count               int           // number of pings to send.
	interval            time.Duration // distance between pings.
	thresholdPercentage uint          // percentage of successful pings for a reachable address.
	unprivileged        bool          // if true, uses UDP-based pings instead of privileged ICMPs.

	netns    relations.Relation     // network namespace to ping from, or nil.
	workers  *workerpool.WorkerPool // workers for running probes concurrently.
	verdicts chan types.Probe       // results stream channel.
	stopOnce sync.Once
}

// Option can be passed to New when creating new Pinger objects.
type Option func(*Pinger)

// New returns a new [Pinger] with a maximum worker pool of the specified size
// as well as a verdict stream. The verdict channel only sends the final
// verdicts, with quality either [types.Verified] or [types.Invalid].
//
// The new pinger defaults to pinging 3 times at intervals of 1s between each
// ping. The reachability threshold defaults to 50(%).
func New(size int, options ...Option) (*Pinger, <-chan types.Probe) {
	return newPinger(size, size, options...)
}

// newPinger returns a new [Pinger] with a maximum worker pool of the specified
// size and a verdict stream with the specified buffer size.
func newPinger(workersize int, chansize int, options ...Option) (*Pinger, <-chan types.Probe) {
	if workersize < 1 {
		workersize = 1
	}
	verdicts := make(chan types.Probe, chansize)
	pinger := &Pinger{
		count:               3,
		interval:            time.Second,
		thresholdPercentage: 50,
		workers:             workerpool.New(workersize),
		verdicts:            verdicts,
	}
	for _, opt := range options {
		opt(pinger)
	}
	return pinger, verdicts
}

// InNetworkNamespace optionally runs a [Pinger] inside the network namespace
// referenced by the specified filesystem path.
func InNetworkNamespace(netnsref string) Option {
	return func(p *Pinger) {
		if netnsref == "" {
			return
		}
		p.netns = ops.NewTypedNamespacePath(netnsref, species.CLONE_NEWNET)
	}
}

// WithCount sets the number of pings for testing reachability of an address.
func WithCount(count uint) Option {
	return func(p *Pinger) {
		p.count = int(count)
	}
}

// WithInterval sets the interval between consecutive pings.
func WithInterval(interval time.Duration) Option {
	return func(p *Pinger) {
		p.interval = interval
	}
}

// AsUnprivileged tells the Pinger to carry out unprivileged pings using UDP
// instead of ICMP packets.
func AsUnprivileged() Option {
	return func(p *Pinger) {
		p.unprivileged = true
	}
}

// WithThresholdPercentage takes a percentage between 0 and 100 that specifies
// the percentage of successful ping responses required in order to consider
// the pinged address to be reachable.
func WithThresholdPercentage(threshold uint) Option {
	if threshold > 100 {
		panic(fmt.Errorf("Pinger: threshold must be a percentage between 0 <= threshold <= 100, got: %d",
			threshold))
	}
	return func(p *Pinger) {
		p.thresholdPercentage = threshold
	}
}

// Probe the address of the specified probe by pinging it. The verdict is then
// sent to the channel returned together with the newly created [Pinger].
//
// If the specified context gets cancelled the pending probes won't be echoed to
// the verdict stream at all, and in particular not even as invalid. However,
// spurious verdicts might still appear on the verdict stream due to
// uncontrollable order of verdict sending and context cancellation detection.
func (p *Pinger) Probe(ctx context.Context, probe types.Probe) {
	probe = probe.WithQuality(types.Verifying, nil)
	p.workers.Submit(func() {
		verdict := probe.WithQuality(types.Invalid, nil)
		defer func() {
			// Allow cancelling a blocked verdict send to avoid leaking
			// goroutines.
			select {
			case p.verdicts <- verdict:
			case <-ctx.Done():
			}
		}()
		ping := func() interface{} {
			// A quick and non-blocking check to see if the context has been
			// cancelled before we start our work...
			if err := ctx.Err(); err != nil {
				return err
			}
			return p.ping(ctx, probe.Address)
		}
		// Run the ping in the requested network namespace, if necessary.
		var err error
		if p.netns != nil {
			// lxkns' ops.Execute differentiates between a namespace switching
			// error and the under switched namespaces called function result.
			var pingerr interface{}
			pingerr, err = ops.Execute(ping, p.netns)
			if err == nil && pingerr != nil {
				err, _ = pingerr.(error)
			}
		} else if res := ping(); res != nil {
			err = res.(error)
		}
		if err != nil {
			verdict = verdict.WithQuality(types.Invalid, err)
			return
		}
		verdict = verdict.WithQuality(types.Verified, nil)
	})
}

// ping the specified address, returning nil if enough replies came back.
func (p *Pinger) ping(ctx context.Context, addr string) error {
	pinger, err := ping.NewPinger(addr)
	if err != nil {
		return err
	}
	pinger.SetPrivileged(!p.unprivileged)
	pinger.Count = p.count
	pinger.Interval = p.interval
	// Always limit waiting for the last ping to get reflected (or not)!
	pinger.Timeout = time.Duration(int64(p.interval) * int64(p.count+2))
	// While the ping is running we need to monitor the context in case it
	// becomes done; the done channel terminates this monitoring.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pinger.Stop()
		case <-done:
		}
	}()
	if err := pinger.Run(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	stats := pinger.Statistics()
	if stats.PacketsRecv < pinger.Count*int(p.thresholdPercentage)/100 {
		return errors.New("no replies or too many losses")
	}
	return nil
}

// StopWait waits for all queued probes to get processed and then finally
// closes the verdict channel.
func (p *Pinger) StopWait() {
	p.stopOnce.Do(func() {
		p.workers.StopWait()
		close(p.verdicts)
	})
}
