/*
Package verifier verifies the reachability of the addresses of live
subdomains, avoiding expensive duplicate verification of the same address when
several subdomains resolve to it.

The concrete address verification is then carried out by a Prober, such as a
ping.Pinger.
*/
package verifier
