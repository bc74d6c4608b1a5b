// Package sqlite provides an External Data Provider backed by SQLite
// (modernc.org/sqlite, no cgo).
package sqlite
