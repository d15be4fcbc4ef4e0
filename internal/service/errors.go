package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOwnerRequired       = errors.New("owner is required")
	ErrInvalidSize         = errors.New("size must be a non-negative number")
	ErrUnsupportedFileType = errors.New("only .txt files are allowed")
	ErrInvalidEncoding     = errors.New("file must be valid UTF-8 encoded text")
	ErrEmptyPrompt         = errors.New("prompt is required")
	ErrFileNotFound        = errors.New("file not found")
	ErrRemoteRefRequired   = errors.New("remote ref is required")
	ErrRemoteRefConflict   = errors.New("file is already indexed under a different remote ref")
	ErrNoFilesIndexed      = errors.New("none of the selected files has been indexed yet")
)

// QuotaExceededError rejects a reservation that would push the owner past the ceiling.
type QuotaExceededError struct {
	CurrentKB   float64
	RequestedKB float64
	LimitKB     float64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("storage quota exceeded: current %.2f KB + requested %.2f KB > limit %.2f KB",
		e.CurrentKB, e.RequestedKB, e.LimitKB)
}

// FileTooLargeError rejects a single upload above the per-file limit.
type FileTooLargeError struct {
	SizeKB  float64
	LimitKB float64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file size %.2f KB exceeds maximum of %.0f KB", e.SizeKB, e.LimitKB)
}

// PartialNotFoundError names requested file ids that are unknown or owned by someone else.
type PartialNotFoundError struct {
	IDs []string
}

func (e *PartialNotFoundError) Error() string {
	return "files not found: " + strings.Join(e.IDs, ", ")
}

// RemoteError is a failed call to the remote index. Local state is left as it was.
type RemoteError struct {
	// Op is "index" or "query".
	Op        string
	FileID    string
	Retryable bool
	Err       error
}

func (e *RemoteError) Error() string {
	if e.Op == "index" {
		return fmt.Sprintf("indexing failed for file %s: %v", e.FileID, e.Err)
	}
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }
