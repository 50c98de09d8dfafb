package domain

import "errors"

// Error kinds. Callers wrap them with fmt.Errorf("%w: ...: %w", kind, cause)
// and test for them with errors.Is.
var (
	// ErrStorage means a storage collaborator failed; always propagated
	ErrStorage = errors.New("storage error")

	// ErrInvalidInput means the caller violated a precondition
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound means a requested record does not exist
	ErrNotFound = errors.New("not found")

	// ErrExternalAPI means a third-party provider failed
	ErrExternalAPI = errors.New("external API error")

	// ErrCurrencyConversion means the rate source failed hard (network/parse).
	// A missing rate is not an error.
	ErrCurrencyConversion = errors.New("currency conversion failed")
)
