// Package task runs long multi-step work off the request path and tracks its
// lifecycle. A submitted task gets a pending record in a Store and is queued
// for a worker; the worker drives it to completed or error, and callers poll
// the record until it reaches one of those terminal states.
//
// Records are in-memory only. Nothing survives a restart.
package task
