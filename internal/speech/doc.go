// Package speech submits audio documents to the asynchronous transcription
// service and accepts the signed results callback. Submission marks the
// document so redelivered change events do not resubmit; the callback write
// is an idempotent overwrite, so duplicate deliveries converge on the same
// transcript.
package speech
