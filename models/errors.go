package models

import (
	"errors"
	"fmt"
)

// Public failure kinds. Every error returned by a crawl is classified into
// exactly one of these before it reaches the API layer.
const (
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeInfrastructure = "INFRASTRUCTURE_FAILURE"
	ErrCodeCrawlFailure   = "CRAWL_FAILURE"
)

// Detail codes. These are logged but never exposed to clients; Classify folds
// them into one of the public kinds above.
const (
	ErrCodeTimeout         = "SCRAPE_TIMEOUT"
	ErrCodeNavigation      = "NAVIGATION_FAILED"
	ErrCodeBrowserCrash    = "BROWSER_CRASH"
	ErrCodeScrollTimeout   = "SCROLL_TIMEOUT"
	ErrCodeSelectorTimeout = "SELECTOR_TIMEOUT"
	ErrCodeRequestBudget   = "REQUEST_BUDGET_EXHAUSTED"
	ErrCodeStorage         = "STORAGE_FAILURE"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// Client-facing messages. The wording is part of the HTTP contract.
const (
	MsgURLRequired   = "Playlist URL is required"
	MsgURLInvalid    = "Invalid playlist URL"
	MsgScrapeFailure = "An error occurred while scraping the playlist"
)

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// Kind returns the public failure kind for this error's code.
func (e *ScrapeError) Kind() string {
	switch e.Code {
	case ErrCodeInvalidInput:
		return ErrCodeInvalidInput
	case ErrCodeInfrastructure, ErrCodeStorage, ErrCodeBrowserCrash, ErrCodeInternal:
		return ErrCodeInfrastructure
	default:
		return ErrCodeCrawlFailure
	}
}

// Classify returns the public failure kind of err. Errors that carry no
// ScrapeError anywhere in their chain are infrastructure failures.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Kind()
	}
	return ErrCodeInfrastructure
}

// ToResponse converts an error into the body returned to clients.
// Only invalid input keeps its message; everything else collapses to the
// generic scrape failure.
func ToResponse(err error) ErrorResponse {
	var se *ScrapeError
	if errors.As(err, &se) && se.Kind() == ErrCodeInvalidInput {
		return ErrorResponse{Error: se.Message}
	}
	return ErrorResponse{Error: MsgScrapeFailure}
}
