// Package domain contains the core vocabulary entities of the application:
// cards, their scheduling state, review ratings and the identity key used to
// decide whether two captures refer to the same word. It has no knowledge
// of storage or transport.
package domain
