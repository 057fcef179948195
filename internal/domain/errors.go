package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound            = errors.New("not found")
	ErrMismatch            = errors.New("mismatch")
	ErrRateLimited         = errors.New("rate limited")
	ErrExternalUnavailable = errors.New("external service unavailable")
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("unauthorized")
)
