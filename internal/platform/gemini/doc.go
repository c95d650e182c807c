// Package gemini provides a text embedder backed by Google's Gemini API.
//
// This package is an infrastructure adapter: it turns the normalized text of a
// search query into a fixed-size vector and hides the genai client behind the
// task.Embedder interface.
//
// Transient failures (rate limiting, 5xx responses, network errors) are
// retried with exponential backoff and jitter. Client errors and malformed
// responses are returned immediately.
package gemini
