// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import "fmt"

// Quality indicates the "quality" of a live name's address, such as
// unverified, verified, et cetera.
type Quality int

// The validation qualities of an address.
const (
	Unverified Quality = iota // address neither in verification nor verified.
	Verifying                 // address in verification.
	Invalid                   // address could not be successfully verified.
	Verified                  // address successfully verified.
)

// String returns the clear-text representation of a Quality value.
func (q Quality) String() string {
	switch q {
	case Unverified:
		return "unverified"
	case Verifying:
		return "verifying"
	case Verified:
		return "verified"
	case Invalid:
		return "invalid"
	}
	return fmt.Sprintf("Quality(%d)", q)
}

// IsPending returns true as long as an address hasn't been either successfully
// or unsuccessfully verified.
func (q Quality) IsPending() bool {
	switch q {
	case Unverified, Verifying:
		return true
	default:
		return false
	}
}

// Symbol returns the single-character marker used when rendering a Quality
// on the console.
func (q Quality) Symbol() string {
	switch q {
	case Verifying:
		return "…"
	case Verified:
		return "✔"
	case Invalid:
		return "×"
	}
	return "?"
}
