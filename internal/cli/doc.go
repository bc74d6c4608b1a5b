// Package cli wires configuration, data providers and the engine together for
// the tilbot command.
package cli
