// Package watch produces streams of candidate file paths from a directory.
//
// Two drivers implement the same capability: Notifier subscribes to OS
// filesystem change events via fsnotify, and Poller re-walks the directory on
// a fixed interval. Configuration selects one; the downstream pipeline sees an
// identical contract either way. Drivers never deduplicate, that is the
// tracker's job.
package watch
