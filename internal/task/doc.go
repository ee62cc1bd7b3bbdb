// Package task runs background work for the API: a bounded in-memory queue,
// a worker pool that drains it, and the meaning-enrichment task scheduled for
// every card captured without a meaning.
//
// Work is not persisted. A task lost to a restart leaves the card with an
// empty meaning, which the learner can still review.
package task
