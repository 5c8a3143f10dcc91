// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package resolver

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/miekg/dns"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/namspill"
	. "github.com/thediveo/success"
)

// zone answers A queries for a few names in "example.test." and denies the
// existence of all other names, except for a name that makes the server fail.
func zone(w dns.ResponseWriter, req *dns.Msg) {
	m := new(dns.Msg)
	m.SetReply(req)
	q := req.Question[0]
	switch q.Name {
	case "www.example.test.", "mail.example.test.":
		if q.Qtype == dns.TypeA {
			m.Answer = append(m.Answer, &dns.A{
				Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
				A:   net.ParseIP("192.0.2.42"),
			})
		}
	case "v6.example.test.":
		if q.Qtype == dns.TypeAAAA {
			m.Answer = append(m.Answer, &dns.AAAA{
				Hdr:  dns.RR_Header{Name: q.Name, Rrtype: dns.TypeAAAA, Class: dns.ClassINET, Ttl: 60},
				AAAA: net.ParseIP("2001:db8::42"),
			})
		}
	case "partial.example.test.":
		if q.Qtype != dns.TypeA {
			m.SetRcode(req, dns.RcodeServerFailure)
			break
		}
		m.Answer = append(m.Answer, &dns.A{
			Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
			A:   net.ParseIP("192.0.2.7"),
		})
	case "empty.example.test.":
	case "broken.example.test.":
		m.SetRcode(req, dns.RcodeServerFailure)
	default:
		m.SetRcode(req, dns.RcodeNameError)
	}
	_ = w.WriteMsg(m)
}

var _ = Describe("DNS client resolver", func() {

	var serverAddr string

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(3 * time.Second).WithPolling(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
			Expect(Tasks()).To(BeUniformlyNamespaced())
		})

		pc := Successful(net.ListenPacket("udp", "127.0.0.1:0"))
		started := make(chan struct{})
		srv := &dns.Server{
			PacketConn:        pc,
			Handler:           dns.HandlerFunc(zone),
			NotifyStartedFunc: func() { close(started) },
		}
		go func() {
			defer GinkgoRecover()
			_ = srv.ActivateAndServe()
		}()
		Eventually(started).Should(BeClosed())
		serverAddr = pc.LocalAddr().String()
		DeferCleanup(func() {
			Expect(srv.Shutdown()).To(Succeed())
		})
	})

	It("rejects missing servers", func() {
		_, err := NewClient([]string{" ", ""})
		Expect(err).To(HaveOccurred())
	})

	It("adds the default DNS port", func() {
		c := Successful(NewClient([]string{"192.0.2.53", "[2001:db8::53]:5353"}))
		Expect(c.Servers()).To(HaveExactElements("192.0.2.53:53", "[2001:db8::53]:5353"))
	})

	It("falls back to the system's DNS servers", func() {
		conf := filepath.Join(GinkgoT().TempDir(), "resolv.conf")
		Expect(os.WriteFile(conf, []byte("nameserver 192.0.2.53\nnameserver 192.0.2.54\n"), 0644)).To(Succeed())
		old := ResolvConf
		ResolvConf = conf
		DeferCleanup(func() { ResolvConf = old })

		c := Successful(NewClient(nil))
		Expect(c.Servers()).To(HaveExactElements("192.0.2.53:53", "192.0.2.54:53"))
	})

	It("rotates over servers", func() {
		c := Successful(NewClient([]string{"192.0.2.1", "192.0.2.2"}))
		Expect([]string{c.server(), c.server(), c.server()}).To(HaveExactElements(
			"192.0.2.1:53", "192.0.2.2:53", "192.0.2.1:53"))
	})

	DescribeTable("resolving names",
		func(ctx context.Context, name string, addrs []string) {
			c := Successful(NewClient([]string{serverAddr}, WithTimeout(2*time.Second)))
			Expect(c.LookupHost(ctx, name)).To(ConsistOf(addrs))
		},
		Entry("IPv4", "www.example.test", []string{"192.0.2.42"}),
		Entry("IPv6", "v6.example.test.", []string{"2001:db8::42"}),
		Entry("IPv4 with failing IPv6", "partial.example.test", []string{"192.0.2.7"}),
	)

	DescribeTable("failing names",
		func(ctx context.Context, name string, notfound bool) {
			c := Successful(NewClient([]string{serverAddr}, WithTimeout(2*time.Second)))
			addrs, err := c.LookupHost(ctx, name)
			Expect(addrs).To(BeEmpty())
			Expect(err).To(HaveOccurred())
			Expect(IsNotFound(err)).To(Equal(notfound))
			Expect(err).To(HaveField("Name", name))
		},
		Entry("NXDOMAIN", "nope.example.test", true),
		Entry("no addresses", "empty.example.test", true),
		Entry("server failure", "broken.example.test", false),
	)

	It("plugs into Resolve", func(ctx context.Context) {
		c := Successful(NewClient([]string{serverAddr}, WithTimeout(2*time.Second)))
		Expect(Resolve(ctx, c, "mail", "example.test")).To(And(
			HaveField("FQDN", "mail.example.test"),
			HaveField("Address", "192.0.2.42"),
			HaveField("IsLive()", BeTrue()),
		))
	})

	It("reports names live when only some of their queries fail", func(ctx context.Context) {
		c := Successful(NewClient([]string{serverAddr}, WithTimeout(2*time.Second)))
		Expect(Resolve(ctx, c, "partial", "example.test")).To(And(
			HaveField("Address", "192.0.2.7"),
			HaveField("IsLive()", BeTrue()),
		))
	})

	It("queries via TCP", func(ctx context.Context) {
		l := Successful(net.Listen("tcp", "127.0.0.1:0"))
		started := make(chan struct{})
		srv := &dns.Server{
			Listener:          l,
			Handler:           dns.HandlerFunc(zone),
			NotifyStartedFunc: func() { close(started) },
		}
		go func() {
			defer GinkgoRecover()
			_ = srv.ActivateAndServe()
		}()
		Eventually(started).Should(BeClosed())
		DeferCleanup(func() {
			Expect(srv.Shutdown()).To(Succeed())
		})

		udp := Successful(NewClient([]string{l.Addr().String()}, WithTimeout(250*time.Millisecond)))
		_, err := udp.LookupHost(ctx, "www.example.test")
		Expect(err).To(HaveOccurred())

		c := Successful(NewClient([]string{l.Addr().String()}, WithTCP(), WithTimeout(2*time.Second)))
		Expect(c.LookupHost(ctx, "www.example.test")).To(ConsistOf("192.0.2.42"))
	})

	It("doesn't query after cancellation", func(ctx context.Context) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		c := Successful(NewClient([]string{serverAddr}))
		_, err := c.LookupHost(ctx, "www.example.test")
		Expect(err).To(HaveOccurred())
	})

	It("queries from inside a network namespace", func(ctx context.Context) {
		if os.Getuid() != 0 {
			Skip("needs root")
		}
		c := Successful(NewClient([]string{serverAddr},
			WithTimeout(2*time.Second),
			InNetworkNamespace("/proc/self/ns/net")))
		Expect(c.LookupHost(ctx, "www.example.test")).To(ConsistOf("192.0.2.42"))
	})

})
