/*
Package ports defines the driven ports (interfaces) of the Tilbot engine.

These interfaces decouple the dialogue engine from transports, table backends
and project sources, so the same engine runs server-hosted (many sessions over
a websocket) or client-local (one session driven by direct calls).

# Key Interfaces

  - DataProvider: random rows and row lookups in external tables (Memory, CSV, SQLite, Redis).
  - Deliverer: hands each emitted message to the transport.
  - FailureReporter: optional, told when a session ends with a fatal error.
  - ProjectLoader: supplies the read-only project document at session start.
*/
package ports
