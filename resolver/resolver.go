// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package resolver

import (
	"context"
	"errors"
	"net"

	"github.com/siemens/subdig/types"

	log "github.com/sirupsen/logrus"
)

// Resolver looks up the addresses of a host name. [net.Resolver] satisfies
// this interface, and so does [Client].
type Resolver interface {
	LookupHost(ctx context.Context, host string) (addrs []string, err error)
}

// System is the platform's (stub) resolver.
var System Resolver = net.DefaultResolver

// Resolve a single candidate label in the specified domain and classify the
// outcome as either live or dead. Resolve never fails: names that do not
// exist as well as names that cannot be resolved for any other reason (such
// as timeouts or unreachable servers) are considered to be dead. The latter
// are logged separately though.
func Resolve(ctx context.Context, r Resolver, label, domain string) types.Outcome {
	fqdn := types.FQDN(label, domain)
	addrs, err := r.LookupHost(ctx, fqdn)
	if err == nil && len(addrs) == 0 {
		err = &net.DNSError{Err: "no addresses", Name: fqdn, IsNotFound: true}
	}
	if err != nil {
		entry := log.WithField("fqdn", fqdn)
		switch {
		case IsNotFound(err):
			entry.Trace("name not found")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			entry.Trace("lookup cancelled")
		default:
			entry.WithError(err).Debug("lookup failed")
		}
		return types.Outcome{
			FQDN:    fqdn,
			Verdict: types.Dead,
			Err:     err,
		}
	}
	return types.Outcome{
		FQDN:    fqdn,
		Verdict: types.Live,
		Address: addrs[0],
	}
}

// IsNotFound returns true if the specified error signals that the name
// doesn't exist (or has no addresses), as opposed to lookup failures.
func IsNotFound(err error) bool {
	var dnserr *net.DNSError
	if errors.As(err, &dnserr) {
		return dnserr.IsNotFound
	}
	return false
}
