// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import "fmt"

// Verdict tells whether a candidate name resolved or not.
type Verdict int

// The resolution verdicts of a candidate name.
const (
	Dead Verdict = iota // name did not resolve, for whatever reason.
	Live                // name resolved into at least one address.
)

// String returns the clear-text representation of a Verdict value.
func (v Verdict) String() string {
	switch v {
	case Dead:
		return "dead"
	case Live:
		return "live"
	}
	return fmt.Sprintf("Verdict(%d)", v)
}

// FQDN returns the name to probe for the given candidate label in the
// specified domain.
func FQDN(label, domain string) string {
	return label + "." + domain
}

// Outcome is the result of resolving a single candidate name. Each candidate
// submitted to a scan produces exactly one Outcome.
type Outcome struct {
	FQDN    string  `json:"subdomain" yaml:"subdomain"`                 // the probed name
	Verdict Verdict `json:"-" yaml:"-"`                                 // live or dead
	Address string  `json:"address,omitempty" yaml:"address,omitempty"` // first resolved address, if live
	Err     error   `json:"-" yaml:"-"`                                 // lookup error, if dead
}

// IsLive returns true if the outcome's name resolved.
func (o Outcome) IsLive() bool { return o.Verdict == Live }

// Result aggregates the outcomes of a scan: the live outcomes in order of
// completion as well as the number of dead ones.
type Result struct {
	Domain string    `json:"domain" yaml:"domain"`
	Live   []Outcome `json:"live" yaml:"live"`
	Dead   int       `json:"dead" yaml:"dead"`
}

// NewResult returns an empty Result for the specified domain.
func NewResult(domain string) *Result {
	return &Result{
		Domain: domain,
		Live:   []Outcome{},
	}
}

// Add merges an outcome into the result: live outcomes get appended, dead
// ones only counted.
func (r *Result) Add(o Outcome) {
	if o.IsLive() {
		r.Live = append(r.Live, o)
		return
	}
	r.Dead++
}

// Total returns the number of outcomes merged so far.
func (r *Result) Total() int {
	return len(r.Live) + r.Dead
}

// Names returns the FQDNs of the live outcomes.
func (r *Result) Names() []string {
	names := make([]string, 0, len(r.Live))
	for _, o := range r.Live {
		names = append(names, o.FQDN)
	}
	return names
}
