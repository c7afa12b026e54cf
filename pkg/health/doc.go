// Package health provides HTTP and TCP reachability checks against a
// remote endpoint, such as a connector's upstream source. No other
// package in this module calls it: the ingestion adapter (pkg/ingest)
// opens its stream without running these checks, and the readiness
// components in pkg/metrics are not fed by them.
//
// Checker is implemented by HTTPChecker and TCPChecker; Status tracks
// consecutive successes/failures against a Config (interval, timeout,
// retry threshold, start period) so a single slow check does not flip
// readiness immediately.
package health
