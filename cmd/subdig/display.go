// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/gosuri/uilive"
	"github.com/siemens/subdig/types"
)

const banner = `           _         _ _
 ___ _   _| |__   __| (_) __ _
/ __| | | | '_ \ / _' | |/ _' |
\__ \ |_| | |_) | (_| | | (_| |
|___/\__,_|_.__/ \__,_|_|\__, |
                         |___/
`

// reporter renders the scan progress and results to the console. Permanent
// lines go straight to the output writer; on terminals, an additional
// progress line with a spinner is kept updated below them.
type reporter struct {
	w        io.Writer
	palette  palette
	hideDead bool

	live    *uilive.Writer // nil unless rendering to a terminal.
	spinner spinner

	mu    sync.Mutex
	total int
	done  int
	alive int
}

// newReporter returns a reporter writing to w. If progress is true, the
// reporter additionally maintains a live progress line.
func newReporter(w io.Writer, p palette, hideDead bool, progress bool) *reporter {
	r := &reporter{
		w:        w,
		palette:  p,
		hideDead: hideDead,
	}
	if progress {
		r.live = uilive.New()
		r.live.Out = w
	}
	return r
}

// out returns the writer for permanent lines.
func (r *reporter) out() io.Writer {
	if r.live != nil {
		return r.live.Bypass()
	}
	return r.w
}

// Banner renders the program banner.
func (r *reporter) Banner() {
	fmt.Fprint(r.w, r.palette.Info(banner))
	fmt.Fprintln(r.w)
}

// Start announces the scan of the specified number of candidates.
func (r *reporter) Start(domain string, candidates int, threads int) {
	r.mu.Lock()
	r.total = candidates
	r.mu.Unlock()
	fmt.Fprintln(r.w, r.palette.Info(fmt.Sprintf("[*] Scanning %d subdomains on %s with %d threads...",
		candidates, r.palette.Name(domain), threads)))
}

// Animate keeps the progress line spinning until the context is done. It
// returns immediately when not rendering to a terminal.
func (r *reporter) Animate(ctx context.Context, interval time.Duration) {
	if r.live == nil {
		return
	}
	r.render()
	r.spinner.Spin(ctx, interval, r.render)
}

// Outcome reports a single scan outcome.
func (r *reporter) Outcome(o types.Outcome) {
	r.mu.Lock()
	r.done++
	if o.IsLive() {
		r.alive++
	}
	r.mu.Unlock()
	switch {
	case o.IsLive():
		fmt.Fprintln(r.out(), r.palette.Live(fmt.Sprintf("[LIVE] %s -> %s", o.FQDN, o.Address)))
	case !r.hideDead:
		fmt.Fprintln(r.out(), r.palette.Dead(fmt.Sprintf("[DEAD] %s", o.FQDN)))
	}
}

// render updates the progress line.
func (r *reporter) render() {
	r.mu.Lock()
	done, total, alive := r.done, r.total, r.alive
	r.mu.Unlock()
	fmt.Fprintf(r.live, "%s%d/%d candidates resolved, %d live\n",
		r.palette.Warn(r.spinner.String()), done, total, alive)
	_ = r.live.Flush()
}

// Stop renders the final state of the progress line, if any.
func (r *reporter) Stop() {
	if r.live == nil {
		return
	}
	r.mu.Lock()
	done, total, alive := r.done, r.total, r.alive
	r.mu.Unlock()
	fmt.Fprintf(r.live, "%d/%d candidates resolved, %d live\n", done, total, alive)
	_ = r.live.Flush()
}

// Summary reports the live subdomains found, which are only partial results
// if the scan got interrupted. If verdicts is non-nil, the reachability of each
// live subdomain gets shown too.
func (r *reporter) Summary(result *types.Result, verdicts map[string]types.Probe, interrupted bool) {
	fmt.Fprintln(r.w)
	if interrupted {
		fmt.Fprintln(r.w, r.palette.Warn(fmt.Sprintf("[!] Scan incomplete. %d live subdomains found so far:", len(result.Live))))
	} else {
		fmt.Fprintln(r.w, r.palette.Info(fmt.Sprintf("[+] Scan complete. %d live subdomains found:", len(result.Live))))
	}
	live := append([]types.Outcome(nil), result.Live...)
	sort.SliceStable(live, func(a, b int) bool { return live[a].FQDN < live[b].FQDN })
	for _, o := range live {
		if verdicts == nil {
			fmt.Fprintln(r.w, r.palette.Live(" - "+o.FQDN))
			continue
		}
		verdict, ok := verdicts[o.FQDN]
		if !ok {
			verdict = types.ProbeOf(o)
		}
		fmt.Fprintf(r.w, "%s %s\n", r.palette.Live(" - "+o.FQDN), r.quality(verdict))
	}
}

// quality renders the reachability verdict for an address.
func (r *reporter) quality(p types.Probe) string {
	text := p.Quality.Symbol() + " " + p.Address
	switch {
	case p.Quality.IsPending():
		return r.palette.Warn(text)
	case p.Quality == types.Verified:
		return r.palette.Live(text)
	default:
		return r.palette.Dead(text)
	}
}

// Saved confirms that the live subdomains have been written to path.
func (r *reporter) Saved(path string) {
	fmt.Fprintln(r.w, r.palette.Info("[+] Live subdomains saved to: "+path))
}

// SaveFailed reports that writing the live subdomains failed.
func (r *reporter) SaveFailed(err error) {
	fmt.Fprintln(r.w, r.palette.Fail("[!] Failed to write output file: "+err.Error()))
}

// Interrupted reports that the user cut the scan short.
func (r *reporter) Interrupted() {
	fmt.Fprintln(r.w, r.palette.Warn("[!] Scan interrupted by user."))
}

// Finished reports successful completion.
func (r *reporter) Finished() {
	fmt.Fprintln(r.w, r.palette.Info("[+] Scan finished successfully!"))
}
