/*
Package session keeps track of the conversations running in one process.

A Registry maps session IDs to running sessions, serializes Start and Close
per ID, and forgets a session as soon as it stops.
*/
package session
