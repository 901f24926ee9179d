// Package tracker decides whether a file's metadata state has been seen before.
//
// It fingerprints metadata records order-independently and keeps per-path seen
// state behind a small Store interface: an in-memory map for the default
// process-lifetime tracking and a SQLite-backed store when suppression should
// survive restarts. For a given path the tracker never reports the same
// fingerprint as new twice against the same store.
package tracker
