/*
Package http is the server-hosted transport: many concurrent sessions, one
per websocket connection.

Routes:

	GET /ws       websocket; frames are {"event": ..., "data": ...}
	GET /events   server-sent events with state diffs (?session_id=, ?watch=)
	GET /graph    the project as JSON, or Mermaid with ?format=mermaid
	GET /health   liveness
	GET /info     version and live session count
	GET /metrics  Prometheus, when configured

Clients send user_message (a string), message_sent and log; the server sends
session (the new session id), bot_message and error.
*/
package http
