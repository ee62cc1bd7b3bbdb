// Package review drives spaced-repetition reviews.
//
// Service builds the queue of due cards and applies a single rating to a
// single card. Session is the per-pass state machine a client steps through:
// reveal the current card, rate it, move on, until the queue is exhausted.
// SessionRegistry keeps sessions on the server for clients that do not want
// to hold that state themselves; sessions expire when abandoned.
package review
