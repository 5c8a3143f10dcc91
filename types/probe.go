// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

// Probe is a live name's address together with the quality (reachability
// verification status, [Quality] type) of that address.
type Probe struct {
	FQDN    string  `json:"fqdn"`    // the DNS "name"
	Address string  `json:"address"` // a single network IP (v4/v6) address
	Quality Quality `json:"quality"` // quality (validation) state
	Err     error   `json:"-"`       // optional error details for invalid addresses
}

// ProbeOf returns an unverified Probe for the specified live outcome.
func ProbeOf(o Outcome) Probe {
	return Probe{
		FQDN:    o.FQDN,
		Address: o.Address,
		Quality: Unverified,
	}
}

// WithQuality returns a copy of the probe with the new quality and optional
// error.
func (p Probe) WithQuality(q Quality, err error) Probe {
	p.Quality = q
	p.Err = err
	return p
}
