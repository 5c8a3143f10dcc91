/*
Package resolver resolves subdomain candidates and classifies the outcome of
each resolution as either live or dead.

[Resolve] works with any [Resolver]: the platform's stub resolver [System]
(this is the default), or a [Client] that directly queries a set of DNS
servers for A and AAAA records using [miekg/dns]. A Client can optionally query
from inside a different network namespace, such as the network namespace of a
container, in order to see names as the container sees them.

Failing to resolve a name is the expected, common case when brute-forcing
subdomains; it is never reported as an error but instead as a dead outcome.

Usage

	outcome := resolver.Resolve(ctx, resolver.System, "www", "example.org")
	if outcome.IsLive() {
	    fmt.Println(outcome.FQDN, outcome.Address)
	}

[miekg/dns]: https://github.com/miekg/dns
*/
package resolver
