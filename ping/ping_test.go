// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package ping

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/siemens/subdig/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/namspill"
)

var _ = Describe("pinger", func() {

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(3 * time.Second).WithPolling(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
			Expect(Tasks()).To(BeUniformlyNamespaced())
		})
	})

	It("handles multiple stops", func() {
		pinger, verdicts := New(1)
		for i := 0; i < 2; i++ {
			By(fmt.Sprintf("%d round", i+1))
			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				pinger.StopWait()
				close(done)
			}()
			Eventually(done).WithTimeout(1 * time.Second).Should(BeClosed())
		}
		Expect(verdicts).To(BeClosed())
	})

	It("rejects invalid thresholds", func() {
		Expect(func() { WithThresholdPercentage(101) }).To(Panic())
	})

	It("invalidates unparseable addresses", NodeTimeout(10*time.Second), func(ctx context.Context) {
		pinger, verdicts := New(1)
		pinger.Probe(ctx, types.Probe{FQDN: "foo.example.com", Address: "not an address!"})
		Eventually(verdicts).Should(Receive(And(
			HaveField("FQDN", "foo.example.com"),
			HaveField("Quality", types.Invalid),
			HaveField("Err", HaveOccurred()),
		)))
		pinger.StopWait()
	})

	It("doesn't ping after cancellation", NodeTimeout(10*time.Second), func(ctx context.Context) {
		pinger, verdicts := newPinger(1, 1)
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		pinger.Probe(ctx, types.Probe{FQDN: "localhost", Address: "127.0.0.1"})
		pinger.StopWait()
		// either nothing or an invalid verdict, but never a verified one.
		Expect(verdicts).NotTo(Receive(HaveField("Quality", types.Verified)))
	})

	When("privileged", func() {

		BeforeEach(func() {
			if os.Getuid() != 0 {
				Skip("needs root")
			}
		})

		It("verifies a loopback address", NodeTimeout(30*time.Second), func(ctx context.Context) {
			pinger, verdicts := New(1, WithCount(1), WithInterval(100*time.Millisecond))
			pinger.Probe(ctx, types.Probe{FQDN: "localhost", Address: "127.0.0.1"})
			Eventually(verdicts).WithTimeout(5 * time.Second).Should(Receive(Equal(types.Probe{
				FQDN:    "localhost",
				Address: "127.0.0.1",
				Quality: types.Verified,
			})))
			pinger.StopWait()
			Eventually(verdicts).Should(BeClosed())
		})

		It("verifies a stream of probes", NodeTimeout(30*time.Second), func(ctx context.Context) {
			pinger, verdicts := New(3, WithCount(1), WithInterval(100*time.Millisecond),
				InNetworkNamespace("/proc/self/ns/net"))
			go func() {
				for i := 0; i < 5; i++ {
					pinger.Probe(ctx, types.Probe{FQDN: strconv.Itoa(i), Address: "127.0.0.1"})
				}
				pinger.StopWait()
			}()
			seen := map[string]types.Quality{}
			for v := range verdicts {
				seen[v.FQDN] = v.Quality
			}
			Expect(seen).To(HaveLen(5))
			Expect(seen).To(HaveEach(types.Verified))
		})

	})

})
