// Package textanalysis extracts entities, concepts, and emotion from audio
// transcripts. The three service calls run in parallel and a failed call
// only omits its field, mirroring the image analysis worker.
package textanalysis
