/*
Package types defines subdig's information model. Which is rather simple and
mainly revolves around the [Outcome] of resolving a single candidate name, and
the [Result] aggregating all outcomes of a scan.

Optionally, the addresses of live names can be probed for reachability; the
probe results are represented by [Probe] and their verification [Quality].

Outcomes and probes are plain values: they are passed around by value through
channels so that neither workers nor consumers ever share mutable state.
*/
package types
