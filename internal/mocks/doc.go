// Package mocks provides testify-based mock implementations of the
// interfaces that services and handlers depend on.
package mocks
