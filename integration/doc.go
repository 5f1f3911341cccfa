//go:build integration

// Package integration provides end-to-end tests for the corpus archive
// pipeline.
//
// The tests build archives from real directory trees, export them and
// compare the results. Interoperability tests shell out to the system tar
// and zstd binaries and are skipped when those are not installed.
// Run with: go test -tags=integration ./integration/...
package integration
