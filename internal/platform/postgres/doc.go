// Package postgres provides the PostgreSQL implementation of store.CardStore
// on top of database/sql and the pgx stdlib driver, together with the goose
// migrations that create its schema.
package postgres
