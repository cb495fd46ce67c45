// Package engine implements the recommendation engine: a pure function that
// maps one evaluation's inputs (current parameter vector, prediction, band
// configuration, previous state) to a risk classification, an advisory
// summary, a ranked action list, and a "what changed" diff list.
//
// Evaluate performs no I/O and holds no state — every invocation is
// independent given its full input, and identical inputs produce identical
// results.
package engine
