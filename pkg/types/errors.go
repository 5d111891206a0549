package types

import "errors"

// Error kinds surfaced to the user. Wrap them with fmt.Errorf("...: %w", Err...)
// and test with errors.Is.
var (
	// ErrInvalidUpload: wrong type or too large
	ErrInvalidUpload = errors.New("invalid upload")
	// ErrSurfaceUnavailable: a drawing surface could not be created
	ErrSurfaceUnavailable = errors.New("drawing surface unavailable")
	// ErrEncodingFailed: encoding produced no output
	ErrEncodingFailed = errors.New("image encoding failed")
	// ErrMissingCredential: the AI backend has no API key configured
	ErrMissingCredential = errors.New("missing API credential")
	// ErrRemoteEditFailed: network or service error from the AI backend
	ErrRemoteEditFailed = errors.New("remote edit failed")
)
