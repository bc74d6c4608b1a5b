// Package file provides an External Data Provider backed by CSV files,
// the storage used by the local simulator.
package file
