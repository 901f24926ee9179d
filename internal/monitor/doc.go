// Package monitor wires the watch driver, metadata extractor, seen-state
// tracker, notifier, and cleaner into the processing pipeline.
//
// Each file path is handled to completion before the next: extract metadata,
// ask the tracker whether the state is new, notify, and optionally strip the
// metadata in place. A lock file keeps monitor runs single-instance per log
// directory, and every run carries a session ID for log correlation.
package monitor
