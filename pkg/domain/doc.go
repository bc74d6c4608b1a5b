/*
Package domain contains the core domain models of the Tilbot dialogue engine.

It defines the conversation graph loaded from a project document, the snapshot
of a running session and the events the engine reports. This package is kept
pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Project / Graph: the root document and each level of nested blocks.
  - Block: one bot prompt or control construct (Text, MC, List, AutoComplete, Auto, Group, Trigger).
  - Connector: a labeled outgoing edge with a match expression and side-effect events.
  - Message: what the engine hands to the transport for one emitted block.
  - State: the runtime snapshot of a session (current block, group path, variables, status).
*/
package domain
