// Package store persists media documents and their binary attachments in
// SQLite.
//
// Every mutation bumps the document revision (an opaque "generation-token"
// string) and appends an entry to the change feed consumed by the
// dispatcher. Updates and deletes require the caller's revision to match
// the stored one; a mismatch surfaces as ErrConflict, which is how
// concurrent writers and duplicate change events are kept safe.
//
// Busy/locked responses from SQLite are retried with bounded backoff inside
// the store so workers never see transient storage errors.
package store
