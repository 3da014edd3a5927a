// Package daemon ties the background services together: the change feed
// poller, the worker registry, and the HTTP server. A file lock enforces a
// single running instance per data directory.
package daemon
