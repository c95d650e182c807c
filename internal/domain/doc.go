// Package domain contains the entities shared by the matching pipeline:
// the search query submitted by a caller and the media items returned by
// the remote matcher. It has no dependencies on infrastructure.
package domain
