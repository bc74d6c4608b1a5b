/*
Package observability turns engine lifecycle events into logs, Prometheus
metrics and a live stream of state diffs.

Each producer exposes Hooks(); combine them with domain.MergeHooks.
*/
package observability
