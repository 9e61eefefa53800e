package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential is returned when GOOGLE_API_KEY is not set.
	ErrMissingCredential = errors.New("GOOGLE_API_KEY is missing, add it to your environment or .env file")
	// ErrEmptyInput is returned when a processing run has no URLs.
	ErrEmptyInput = errors.New("please enter at least one URL before processing")
	// ErrNoIndex is returned when a query arrives before any index exists.
	ErrNoIndex = errors.New("no index found, please process URLs first")
	// ErrEmptyQuery is returned for blank questions.
	ErrEmptyQuery = errors.New("question is empty")
	// ErrIndexIncompatible is returned when a persisted index was built by a different embedder.
	ErrIndexIncompatible = errors.New("index was built with a different embedder")
)

// IngestionError reports a fetch or extraction failure for one URL.
// The whole processing run is aborted when it occurs.
type IngestionError struct {
	URL string
	Err error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("error loading %s: %v", e.URL, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// AnswerError reports a failure of the completion capability.
type AnswerError struct {
	Err error
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("answer generation failed: %v", e.Err)
}

func (e *AnswerError) Unwrap() error { return e.Err }
