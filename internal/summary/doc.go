// Package summary condenses the per-frame and transcript analysis of one
// video into the handful of faces, keywords, entities, and concepts worth
// showing. Raw analysis is noisy: the occurrence filter keeps only what
// shows up often enough and confidently enough across frames.
package summary
