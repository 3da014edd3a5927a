// Package api exposes the pipeline over HTTP: media uploads and listings,
// video summaries, reset operations, pipeline status, and the signed
// callback endpoint the transcription service delivers results to.
package api
