/*
Package ping implements an ICMP(v4/v6)-based reachability check for the
addresses of live subdomains.

[Pinger] objects support concurrent probes with maximum goroutine limits.
Individual verdicts are streamed as they are decided, to a channel returned
when creating a new Pinger object.

	          +---+
	Probe --->| P +-->ch Probe
	          +---+

Please note that privileged ICMP pings need the CAP_NET_RAW capability; use
[AsUnprivileged] for UDP-based pings otherwise.

# Acknowledgements

Under its hood, [Pinger] leverages [gammazero/workerpool] as the limiting
goroutine pool and [go-ping/ping] for the pings.

[gammazero/workerpool]: https://github.com/gammazero/workerpool
[go-ping/ping]: https://github.com/go-ping/ping
*/
package ping
