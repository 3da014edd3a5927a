// Package services holds the error taxonomy and context annotations shared
// by the pipeline workers and the external service clients.
//
// Failures are tagged with sentinel markers so callers can classify them
// without string matching:
//
//   - ErrStageIO: a download/encode/probe failure that aborts the current
//     stage while keeping earlier committed writes.
//   - ErrExternalService: a recognition/transcription/text-analysis call
//     failed; the corresponding analysis field is omitted and the stage
//     still completes.
//   - ErrTransient: a storage-level failure that the store client retries
//     with backoff before surfacing.
//
// Context helpers annotate a context with the document id and stage name so
// logging can derive consistent structured fields.
package services
