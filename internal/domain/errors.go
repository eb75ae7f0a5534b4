package domain

import "errors"

// Fetch-level errors, classified by the fetcher from transport results.
var (
	ErrFetchTimeout = errors.New("fetch timed out")
	ErrFetchBlocked = errors.New("fetch blocked by source")
)

// Sync-level errors returned by Resolve when no last-good data exists
// to fall back on.
var (
	// ErrPageNotFound means the identifier is unknown to the source and
	// no stored fallback exists.
	ErrPageNotFound = errors.New("page not found")

	// ErrUnavailable means the fetch could not complete.
	ErrUnavailable = errors.New("page source unavailable")

	// ErrParseFailure means the fetch succeeded but required fields
	// could not be extracted from the markup.
	ErrParseFailure = errors.New("page markup could not be parsed")
)

// ErrMissingRequiredField is returned by the extractor when an expected
// field is absent from otherwise well-formed markup.
var ErrMissingRequiredField = errors.New("required field missing from markup")
