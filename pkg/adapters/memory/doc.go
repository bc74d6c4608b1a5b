// Package memory provides an in-memory External Data Provider.
package memory
