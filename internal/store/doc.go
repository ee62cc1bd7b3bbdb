// Package store defines the persistence contract for cards and the errors
// every backend maps its failures onto. Backends live under internal/platform.
package store
