// Package extractor turns an uploaded video into the documents the rest of
// the pipeline works on: container metadata on the video itself, an audio
// document carrying the first minutes of sound, one image document per
// sampled frame, and a thumbnail attached to the video. Metadata presence is
// the processing marker: a video that already has metadata is skipped, which
// makes redelivered change events harmless.
package extractor
