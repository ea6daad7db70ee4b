package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyCorpus   = errors.New("corpus is empty")
	ErrNoChunks      = errors.New("corpus produced no chunks")
	ErrEmbedding     = errors.New("embedding service failed")
	ErrGeneration    = errors.New("generation service failed")
	ErrIndexNotFound = errors.New("index not found")
	ErrIndexCorrupt  = errors.New("index is corrupt")
	ErrModelMismatch = errors.New("embedding model does not match index")
)

// BuildError is returned by index construction and persistence.
type BuildError struct {
	Stage string
	Err   error
}

func (e *BuildError) Error() string { return fmt.Sprintf("index build: %s: %v", e.Stage, e.Err) }

func (e *BuildError) Unwrap() error { return e.Err }

// QueryError is returned when answering a question fails.
type QueryError struct {
	Stage string
	Err   error
}

func (e *QueryError) Error() string { return fmt.Sprintf("query: %s: %v", e.Stage, e.Err) }

func (e *QueryError) Unwrap() error { return e.Err }
