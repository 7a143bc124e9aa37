// Package service implements the application services: collection
// lifecycle, document ingestion, and ranked search.
package service

import "errors"

// ErrUnknownCollection indicates an operation targeted a collection that
// is not registered.
var ErrUnknownCollection = errors.New("unknown collection")

// ErrCollectionExists indicates a create targeted a name that is already
// registered.
var ErrCollectionExists = errors.New("collection already exists")

// ErrIndexing indicates the vector index rejected the chunk batch. The
// uploaded document is kept; the collection counter is not advanced.
var ErrIndexing = errors.New("indexing failed")

// ErrEmptyQuery indicates a search was submitted without query text.
var ErrEmptyQuery = errors.New("query text is required")
