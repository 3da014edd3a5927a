// Package dispatch turns change feed entries into worker invocations. The
// dispatcher inspects the current revision of each changed document, decides
// which pipeline action (if any) the document is ready for, and hands it to
// the invoker. Everything else in the feed is ignored with a recorded
// reason, which keeps redeliveries and stale revisions harmless.
package dispatch
