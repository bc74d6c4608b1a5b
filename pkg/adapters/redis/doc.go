// Package redis provides an External Data Provider backed by Redis, for
// deployments where several server processes share the same tables.
package redis
