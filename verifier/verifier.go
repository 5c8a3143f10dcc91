// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package verifier

import (
	"context"

	"github.com/siemens/subdig/types"
)

// Prober probes the reachability of addresses, streaming its verdicts to the
// channel passed to Verify. [ping.Pinger] is a Prober.
type Prober interface {
	Probe(ctx context.Context, probe types.Probe)
	StopWait()
}

// Verify the reachability of the addresses of the specified live outcomes,
// returning the final verdicts indexed by FQDN. Each distinct address gets
// probed only once, and its verdict then applies to all FQDNs resolving to it.
//
// Verify takes ownership of the prober and stops it before returning. When the
// context gets cancelled, Verify returns early with the verdicts so far; the
// FQDNs still pending are missing from the returned map.
func Verify(ctx context.Context, prober Prober, verdicts <-chan types.Probe, live []types.Outcome) map[string]types.Probe {
	// IP address -> waiting FQDNs that want to learn about the verdict.
	consumers := map[string][]string{}
	for _, o := range live {
		if o.Address == "" {
			continue
		}
		fqdns, known := consumers[o.Address]
		consumers[o.Address] = append(fqdns, o.FQDN)
		if !known {
			prober.Probe(ctx, types.ProbeOf(o))
		}
	}
	go prober.StopWait()

	results := make(map[string]types.Probe, len(live))
	for {
		select {
		case verdict, ok := <-verdicts:
			if !ok {
				return results
			}
			for _, fqdn := range consumers[verdict.Address] {
				v := verdict
				v.FQDN = fqdn
				results[fqdn] = v
			}
			delete(consumers, verdict.Address)
		case <-ctx.Done():
			return results
		}
	}
}
