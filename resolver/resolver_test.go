// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/siemens/subdig/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeResolver resolves names from a fixed table and otherwise reports the
// configured error.
type fakeResolver struct {
	names map[string][]string
	err   error
}

func (f fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	if addrs, ok := f.names[host]; ok {
		return addrs, nil
	}
	if f.err != nil {
		return nil, f.err
	}
	return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}

var _ = Describe("resolving candidates", func() {

	r := fakeResolver{
		names: map[string][]string{
			"www.example.com":  {"192.0.2.1", "2001:db8::1"},
			"void.example.com": {},
		},
	}

	It("classifies resolvable names as live", func(ctx context.Context) {
		Expect(Resolve(ctx, r, "www", "example.com")).To(Equal(types.Outcome{
			FQDN:    "www.example.com",
			Verdict: types.Live,
			Address: "192.0.2.1",
		}))
	})

	It("classifies unknown names as dead", func(ctx context.Context) {
		o := Resolve(ctx, r, "doesnotexist123", "example.com")
		Expect(o.FQDN).To(Equal("doesnotexist123.example.com"))
		Expect(o.IsLive()).To(BeFalse())
		Expect(IsNotFound(o.Err)).To(BeTrue())
	})

	It("classifies names without addresses as dead", func(ctx context.Context) {
		o := Resolve(ctx, r, "void", "example.com")
		Expect(o.Verdict).To(Equal(types.Dead))
		Expect(IsNotFound(o.Err)).To(BeTrue())
	})

	It("classifies failed lookups as dead, too", func(ctx context.Context) {
		r := fakeResolver{err: &net.DNSError{Err: "i/o timeout", IsTimeout: true}}
		o := Resolve(ctx, r, "www", "example.com")
		Expect(o.Verdict).To(Equal(types.Dead))
		Expect(o.Err).To(HaveOccurred())
		Expect(IsNotFound(o.Err)).To(BeFalse())
	})

	DescribeTable("telling not-found from other errors",
		func(err error, notfound bool) {
			Expect(IsNotFound(err)).To(Equal(notfound))
		},
		Entry("nil", nil, false),
		Entry("plain error", errors.New("D'OH!"), false),
		Entry("DNS not found", &net.DNSError{IsNotFound: true}, true),
		Entry("wrapped DNS not found", fmt.Errorf("wrapped: %w", &net.DNSError{IsNotFound: true}), true),
		Entry("DNS timeout", &net.DNSError{IsTimeout: true}, false),
	)

})
