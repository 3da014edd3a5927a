// Package pipeline provides the ordered step runner shared by the workers.
// A worker declares its steps once; the runner executes them in order,
// short-circuits on the first failure, and logs per-step timing.
package pipeline
