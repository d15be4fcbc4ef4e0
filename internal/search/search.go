// Package search defines the contract with the remote hybrid index that
// stores file content and answers scoped prompts.
package search

import (
	"context"
	"errors"
	"fmt"
)

// IndexRequest is one document handed to the remote index.
type IndexRequest struct {
	Owner       string
	FileID      string
	DisplayName string
	Content     string
	Tags        []string
}

// Source is a passage that contributed to an answer.
type Source struct {
	FileID   string  `json:"file_id"`
	FileName string  `json:"file_name"`
	Score    float64 `json:"score"`
	Passage  string  `json:"passage"`
}

// Answer is the remote index's reply to a scoped prompt.
type Answer struct {
	Text    string
	Sources []Source
}

// Index is the remote hybrid index.
type Index interface {
	// Index stores the document and returns its remote ref.
	Index(ctx context.Context, req IndexRequest) (string, error)
	// Query answers prompt using only the documents named by refs. refs is never empty.
	Query(ctx context.Context, prompt string, refs []string) (Answer, error)
}

// Error is a failed remote call. Retryable is set for transport failures,
// timeouts, throttling and server-side errors.
type Error struct {
	Op         string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("search %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("search %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Retryable
	}
	return errors.Is(err, context.DeadlineExceeded)
}
