// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/miekg/dns"
	"github.com/thediveo/lxkns/ops"
	"github.com/thediveo/lxkns/ops/relations"
	"github.com/thediveo/lxkns/species"
	"golang.org/x/net/idna"

	log "github.com/sirupsen/logrus"
)

// ResolvConf is the resolver configuration file consulted when creating a
// [Client] without explicit DNS server addresses.
var ResolvConf = "/etc/resolv.conf"

// DefaultTimeout limits each single DNS exchange of a [Client].
const DefaultTimeout = 5 * time.Second

// Client resolves names by directly querying a set of DNS servers for A and
// AAAA records, rotating over the servers. A Client is safe for concurrent
// use.
type Client struct {
	servers []string
	next    atomic.Uint32
	dnsclnt *dns.Client
	netns   relations.Relation // network namespace to query from, or nil.
}

var _ Resolver = (*Client)(nil)

// ClientOption can be passed to NewClient when creating new [Client] objects.
type ClientOption func(*Client)

// NewClient returns a new Client querying the specified DNS servers, given as
// "host" or "host:port". If no servers are specified, then the name servers
// from [ResolvConf] are used instead.
//
// To query from a network namespace different to that of the OS-level thread
// of the caller specify the [InNetworkNamespace] option and pass it a
// filesystem path that must reference a network namespace (such as
// "/proc/666/ns/net").
func NewClient(servers []string, options ...ClientOption) (*Client, error) {
	if len(servers) == 0 {
		cfg, err := dns.ClientConfigFromFile(ResolvConf)
		if err != nil {
			return nil, fmt.Errorf("cannot determine system DNS servers: %w", err)
		}
		for _, server := range cfg.Servers {
			servers = append(servers, net.JoinHostPort(server, cfg.Port))
		}
		if len(servers) == 0 {
			return nil, fmt.Errorf("no DNS servers configured in %s", ResolvConf)
		}
	}
	c := &Client{
		dnsclnt: &dns.Client{
			Net:     "udp",
			Timeout: DefaultTimeout,
		},
	}
	for _, server := range servers {
		server = strings.TrimSpace(server)
		if server == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(server); err != nil {
			server = net.JoinHostPort(server, "53")
		}
		c.servers = append(c.servers, server)
	}
	if len(c.servers) == 0 {
		return nil, errors.New("no usable DNS server addresses")
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// InNetworkNamespace optionally runs all queries of a Client inside the
// network namespace referenced by the specified filesystem path.
func InNetworkNamespace(netnsref string) ClientOption {
	return func(c *Client) {
		if netnsref == "" {
			return
		}
		c.netns = ops.NewTypedNamespacePath(netnsref, species.CLONE_NEWNET)
	}
}

// WithTimeout sets the timeout of each individual DNS exchange.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.dnsclnt.Timeout = timeout
	}
}

// WithTCP tells the Client to query its servers via TCP instead of UDP.
func WithTCP() ClientOption {
	return func(c *Client) {
		c.dnsclnt.Net = "tcp"
	}
}

// Servers returns the DNS server addresses used by this Client.
func (c *Client) Servers() []string {
	return append([]string(nil), c.servers...)
}

// server returns the next server to query in round-robin fashion.
func (c *Client) server() string {
	idx := c.next.Add(1) - 1
	return c.servers[int(idx%uint32(len(c.servers)))]
}

// lookupResult is what a lookup passes back through lxkns' ops.Execute.
type lookupResult struct {
	addrs []string
	err   error
}

// LookupHost queries the A and AAAA records of the specified host name and
// returns the addresses in textual format. Names that don't exist or that
// lack any address records are reported as [net.DNSError] with IsNotFound
// set.
func (c *Client) LookupHost(ctx context.Context, host string) ([]string, error) {
	name, err := idna.ToASCII(strings.TrimSuffix(host, "."))
	if err != nil || name == "" {
		return nil, &net.DNSError{Err: fmt.Sprintf("invalid name: %v", err), Name: host}
	}
	server := c.server()
	lookup := func() interface{} {
		addrs, err := c.exchange(ctx, dns.Fqdn(name), server)
		if err != nil {
			err.Name = host
		}
		if err == nil && len(addrs) == 0 {
			err = &net.DNSError{Err: "no such host", Name: host, Server: server, IsNotFound: true}
		}
		if err != nil {
			return lookupResult{err: err}
		}
		return lookupResult{addrs: addrs}
	}
	// Query in the requested network namespace, if necessary.
	if c.netns == nil {
		res := lookup().(lookupResult)
		return res.addrs, res.err
	}
	res, err := ops.Execute(lookup, c.netns)
	if err != nil {
		return nil, fmt.Errorf("cannot query from network namespace: %w", err)
	}
	lr := res.(lookupResult)
	return lr.addrs, lr.err
}

// exchange sends the A and AAAA queries for name to server and gathers the
// addresses from the answers. The queries are not concurrent. When the second
// query fails after the first one already yielded addresses, these addresses
// are returned nevertheless.
func (c *Client) exchange(ctx context.Context, name string, server string) ([]string, *net.DNSError) {
	var addrs []string
	for _, addrType := range []uint16{dns.TypeA, dns.TypeAAAA} {
		answer, err := c.query(ctx, name, addrType, server)
		if err != nil {
			if len(addrs) > 0 && !err.IsNotFound {
				log.WithFields(log.Fields{
					"name":  name,
					"type":  dns.TypeToString[addrType],
					"error": err.Err,
				}).Debug("ignoring failed query, got addresses already")
				return addrs, nil
			}
			return nil, err
		}
		addrs = append(addrs, answer...)
	}
	return addrs, nil
}

// query sends a single query of the specified address record type.
func (c *Client) query(ctx context.Context, name string, addrType uint16, server string) ([]string, *net.DNSError) {
	// don't query when the context has been cancelled in the meantime.
	if err := ctx.Err(); err != nil {
		return nil, &net.DNSError{Err: err.Error(), Server: server}
	}
	msg := dns.Msg{}
	msg.SetQuestion(name, addrType)
	r, _, err := c.dnsclnt.ExchangeContext(ctx, &msg, server)
	if err != nil {
		var neterr net.Error
		return nil, &net.DNSError{
			Err:       err.Error(),
			Server:    server,
			IsTimeout: errors.As(err, &neterr) && neterr.Timeout(),
		}
	}
	switch r.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		// NXDOMAIN applies to all record types, so no need to ask for more.
		return nil, &net.DNSError{Err: "no such host", Server: server, IsNotFound: true}
	default:
		return nil, &net.DNSError{
			Err:         "server answered " + dns.RcodeToString[r.Rcode],
			Server:      server,
			IsTemporary: r.Rcode == dns.RcodeServerFailure,
		}
	}
	var addrs []string
	for _, rr := range r.Answer {
		switch addrRR := rr.(type) {
		case *dns.A:
			addrs = append(addrs, addrRR.A.String())
		case *dns.AAAA:
			addrs = append(addrs, addrRR.AAAA.String())
		}
	}
	return addrs, nil
}
