// Package postgres provides PostgreSQL-specific implementations for the entity
// store interfaces defined in the internal/store package, together with the
// embedded schema migrations.
//
// Stores accept a store.DBTX so the same code runs against a pool or inside a
// transaction.
package postgres
