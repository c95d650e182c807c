// Package retrieval turns matched media items into references a caller can
// fetch: a time-limited direct URL from object storage, or a file downloaded
// into the service's download directory.
//
// Reconciliation is total. Every input item ends up in exactly one of the
// resolved or failed lists, and one item failing never stops the others.
package retrieval
