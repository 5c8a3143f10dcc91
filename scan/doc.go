/*
Package scan implements the concurrent subdomain scan: a [Scanner] resolves a
list of candidate labels in a target domain, running a limited number of
lookups concurrently, and aggregates the outcomes into a single result.

The workers never touch the result themselves. Instead, they stream their
outcomes into a completion channel that is consumed by the single goroutine
running [Scanner.Run]; this is the only place where the result is built.

	              +---------+
	candidates -->| workers +--> ch Outcome --> Run --> Result
	              +---------+

# Acknowledgements

Under its hood, [Scanner] leverages [gammazero/workerpool] as the limiting
goroutine pool.

[gammazero/workerpool]: https://github.com/gammazero/workerpool
*/
package scan
