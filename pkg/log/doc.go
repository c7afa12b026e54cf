// Package log provides structured logging for the cache engine using
// zerolog: a package-level Logger initialized via Init, plus
// WithComponent/WithEndpoint/WithOperationID helpers that attach
// structured fields to a child logger. Packages take a zerolog.Logger
// explicitly rather than reaching for the global one, so tests can pass
// zerolog.Nop(); this package exists for the one process entry point
// (cmd/dozer-cache) that needs a configured global default.
package log
