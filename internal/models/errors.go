package models

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrNoEmbeddedChunks  = errors.New("no embedded chunks to search")
	ErrEmptyQuery        = errors.New("query is empty")
)

// DocumentOpenError reports a document that could not be opened or parsed. Runs abort on it.
type DocumentOpenError struct {
	Name  string
	Cause error
}

func (e *DocumentOpenError) Error() string {
	return fmt.Sprintf("open document %q: %v", e.Name, e.Cause)
}

func (e *DocumentOpenError) Unwrap() error {
	return e.Cause
}

type EmbeddingErrorKind string

const (
	EmbeddingAuth      EmbeddingErrorKind = "auth"
	EmbeddingRateLimit EmbeddingErrorKind = "rate_limit"
	EmbeddingTransport EmbeddingErrorKind = "transport"
	EmbeddingMalformed EmbeddingErrorKind = "malformed"
)

// EmbeddingError reports a failed embedding call.
type EmbeddingError struct {
	Kind  EmbeddingErrorKind
	Cause error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding %s error: %v", e.Kind, e.Cause)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Cause
}

// InvalidCredentialsError is returned when the extraction provider rejects the API key.
type InvalidCredentialsError struct {
	Cause error
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials for extraction provider: %v", e.Cause)
}

func (e *InvalidCredentialsError) Unwrap() error {
	return e.Cause
}

// RateLimitedError is returned when the extraction provider throttles the call.
// Callers should ask the user to wait and retry.
type RateLimitedError struct {
	Cause error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("extraction provider rate limited, wait and retry: %v", e.Cause)
}

func (e *RateLimitedError) Unwrap() error {
	return e.Cause
}

// ExtractionError wraps any other extraction call failure.
type ExtractionError struct {
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction failed: %s", e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
