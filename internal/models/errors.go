package models

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingIdentity is returned for a record without an id. Such a record
	// cannot be merged into a listing.
	ErrMissingIdentity = errors.New("record has no id")
	ErrInvalidRecord   = errors.New("record failed validation")

	ErrFetchFailed  = errors.New("page fetch failed")
	ErrDecodeFailed = errors.New("page could not be decoded")
	ErrTooManyPages = errors.New("page limit reached without a last page")
)

// DecodeError describes a single record that could not be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode record: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FetchError is returned when a page request fails. The pass it belonged to
// has been aborted.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

// PageDecodeError is returned when every record of a page failed to decode.
type PageDecodeError struct {
	Page    int
	Records int
}

func (e *PageDecodeError) Error() string {
	return fmt.Sprintf("page %d: all %d records failed to decode", e.Page, e.Records)
}

func (e *PageDecodeError) Is(target error) bool { return target == ErrDecodeFailed }
