//go:build integration

// Package testdb provides helpers for tests that run against a real Postgres
// database. Tests opt in with the integration build tag and a database URL in
// the environment; every helper isolates work in a transaction that is rolled
// back when the test finishes.
package testdb
