// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/siemens/subdig/metrics"
	"github.com/siemens/subdig/mobynet"
	"github.com/siemens/subdig/output"
	"github.com/siemens/subdig/ping"
	"github.com/siemens/subdig/resolver"
	"github.com/siemens/subdig/scan"
	"github.com/siemens/subdig/types"
	"github.com/siemens/subdig/verifier"
	"github.com/siemens/subdig/wordlist"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ScanAndReport scans the configured domain for live subdomains, reporting
// progress and results to w. Interrupting the scan via the context is not an
// error: the partial results are reported and saved as usual.
func ScanAndReport(ctx context.Context, cfg *config, w io.Writer) error {
	candidates, err := wordlist.Load(cfg.Wordlist)
	if err != nil {
		return err
	}

	r, netns, err := newResolver(ctx, cfg)
	if err != nil {
		return err
	}

	var collector *metrics.Collector
	if cfg.MetricsAddr != "" {
		collector = metrics.New(true)
	}

	rep := newReporter(w, newPalette(wantsColor(w, cfg.NoColor)), cfg.HideDead, isTerminalWriter(w))
	if !cfg.Quiet {
		rep.Banner()
	}
	rep.Start(cfg.Domain, len(candidates), cfg.Threads)

	scanner := scan.New(cfg.Threads, r,
		scan.WithObserver(rep.Outcome),
		scan.WithMetrics(collector))

	// The scan, the metrics server and the progress animation run side by
	// side; when the scan is done, the others get wound down.
	scanctx, endScan := context.WithCancel(ctx)
	defer endScan()
	g, gctx := errgroup.WithContext(scanctx)
	var result *types.Result
	var scanErr error
	g.Go(func() error {
		defer endScan()
		result, scanErr = scanner.Run(gctx, cfg.Domain, candidates)
		return nil
	})
	if collector != nil {
		g.Go(func() error {
			return collector.Serve(gctx, cfg.MetricsAddr)
		})
	}
	g.Go(func() error {
		rep.Animate(gctx, cfg.Spinner)
		return nil
	})
	err = g.Wait()
	rep.Stop()
	if err != nil {
		return err
	}
	interrupted := errors.Is(scanErr, context.Canceled) && ctx.Err() != nil
	if scanErr != nil && !interrupted {
		return fmt.Errorf("scan failed: %w", scanErr)
	}
	log.WithFields(log.Fields{
		"domain": cfg.Domain,
		"total":  result.Total(),
		"live":   len(result.Live),
		"dead":   result.Dead,
	}).Info("scan done")

	var verdicts map[string]types.Probe
	if cfg.Ping && !interrupted && len(result.Live) > 0 {
		verdicts = verify(ctx, cfg, netns, result)
	}
	rep.Summary(result, verdicts, interrupted)

	if cfg.Output != "" {
		if err := output.Save(cfg.Output, cfg.Format, result); err != nil {
			log.WithError(err).Error("cannot save live subdomains")
			rep.SaveFailed(err)
		} else {
			rep.Saved(cfg.Output)
		}
	}
	if interrupted {
		rep.Interrupted()
		return nil
	}
	rep.Finished()
	return nil
}

// newResolver returns the resolver to use for the scan, as well as the
// network namespace to scan from, if any.
func newResolver(ctx context.Context, cfg *config) (resolver.Resolver, string, error) {
	netns := cfg.Netns
	servers := cfg.Resolvers
	if cfg.Container != "" {
		moby, err := mobynet.NewClient(cfg.DockerHost)
		if err != nil {
			return nil, "", err
		}
		defer moby.Close()
		netns, err = mobynet.NetnsOfContainer(ctx, moby, cfg.Container)
		if err != nil {
			return nil, "", err
		}
		if len(servers) == 0 {
			servers = []string{mobynet.EmbeddedDNS}
		}
	}
	if len(servers) == 0 && netns == "" {
		log.Debug("using system resolver")
		return resolver.System, "", nil
	}
	opts := []resolver.ClientOption{
		resolver.InNetworkNamespace(netns),
		resolver.WithTimeout(cfg.DNSTimeout),
	}
	if cfg.TCP {
		opts = append(opts, resolver.WithTCP())
	}
	clnt, err := resolver.NewClient(servers, opts...)
	if err != nil {
		return nil, "", err
	}
	log.WithFields(log.Fields{
		"servers": clnt.Servers(),
		"netns":   netns,
	}).Debug("using DNS client")
	return clnt, netns, nil
}

// verify pings the addresses of the live subdomains, returning the
// reachability verdicts indexed by FQDN.
func verify(ctx context.Context, cfg *config, netns string, result *types.Result) map[string]types.Probe {
	opts := []ping.Option{ping.InNetworkNamespace(netns)}
	if os.Geteuid() != 0 {
		opts = append(opts, ping.AsUnprivileged())
	}
	pinger, verdicts := ping.New(cfg.Threads, opts...)
	return verifier.Verify(ctx, pinger, verdicts, result.Live)
}

// isTerminalWriter returns true if w is a terminal.
func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}
