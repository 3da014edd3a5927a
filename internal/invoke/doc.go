// Package invoke launches pipeline workers in response to dispatched change
// events. Invocations are fire and forget: the dispatcher never waits on a
// worker and a worker failure never propagates back to the feed loop.
// Delivery is therefore at-least-once at best; workers stay idempotent and
// re-check document readiness on entry.
package invoke
