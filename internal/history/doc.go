// Package history keeps the session's evaluation history: every prediction
// the operator ran, with its inputs, band, and risk grade. The store is
// in-memory and capacity-bounded; it also supplies the previous evaluation
// per band (the engine's "what changed" reference) and a lossless CSV
// export/import for offline review.
package history
