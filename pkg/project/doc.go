// Package project loads conversation projects from JSON or YAML documents.
//
// Parsing keeps block declaration order, which drives trigger precedence.
// Validate rejects documents a session cannot start; Lint reports
// constructs that are legal but probably wrong.
package project
