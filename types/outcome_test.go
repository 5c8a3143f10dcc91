// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("scan results", func() {

	It("forms probe names", func() {
		Expect(FQDN("www", "example.com")).To(Equal("www.example.com"))
	})

	It("merges outcomes", func() {
		r := NewResult("example.com")
		Expect(r.Live).NotTo(BeNil())
		Expect(r.Total()).To(BeZero())

		r.Add(Outcome{FQDN: "www.example.com", Verdict: Live, Address: "192.0.2.1"})
		r.Add(Outcome{FQDN: "nope.example.com", Verdict: Dead, Err: errors.New("nxdomain")})
		r.Add(Outcome{FQDN: "www.example.com", Verdict: Live, Address: "192.0.2.1"})

		Expect(r.Dead).To(Equal(1))
		Expect(r.Total()).To(Equal(3))
		Expect(r.Names()).To(ConsistOf("www.example.com", "www.example.com"))
	})

	DescribeTable("stringifies verdicts",
		func(v Verdict, s string) {
			Expect(v.String()).To(Equal(s))
		},
		Entry(nil, Live, "live"),
		Entry(nil, Dead, "dead"),
		Entry(nil, Verdict(42), "Verdict(42)"),
	)

	DescribeTable("qualities",
		func(q Quality, s string, pending bool) {
			Expect(q.String()).To(Equal(s))
			Expect(q.IsPending()).To(Equal(pending))
		},
		Entry(nil, Unverified, "unverified", true),
		Entry(nil, Verifying, "verifying", true),
		Entry(nil, Verified, "verified", false),
		Entry(nil, Invalid, "invalid", false),
	)

	It("requalifies probes without touching the original", func() {
		p := ProbeOf(Outcome{FQDN: "www.example.com", Verdict: Live, Address: "192.0.2.1"})
		Expect(p.Quality).To(Equal(Unverified))
		v := p.WithQuality(Verified, nil)
		Expect(v.Quality).To(Equal(Verified))
		Expect(v.Address).To(Equal("192.0.2.1"))
		Expect(p.Quality).To(Equal(Unverified))
	})

})
