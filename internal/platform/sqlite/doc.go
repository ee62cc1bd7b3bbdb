// Package sqlite provides an embedded SQLite implementation of
// store.CardStore, for single-user deployments and fast tests. It uses the
// pure-Go modernc.org/sqlite driver, so no cgo toolchain is needed.
package sqlite
