// Package media defines the document model shared by the store, the
// dispatcher, and the pipeline workers.
//
// A media document is one record in the document store: a video, a frame
// image sampled from a video, a standalone image, or the audio track of a
// video. Documents are identified by id and revision; the revision changes
// on every mutation and drives both optimistic concurrency and duplicate
// change-event suppression.
//
// Processing progress is tracked two ways: an explicit per-type state field
// validated on transition, and the legacy field-presence projections
// (HasMetadata, HasAnalysis, ...) that the readiness guards consult so
// documents written before the state field existed behave identically.
package media
