package domain

import "errors"

// Identity and resource errors. Handlers map these to 4xx statuses and may show
// the wrapped message.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// Verification errors. Their messages are fixed at the HTTP boundary so a caller
// cannot tell a wrong code from an expired one or learn its remaining quota.
var (
	ErrRateLimited          = errors.New("rate limited")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	ErrDelivery             = errors.New("delivery failed")
	ErrInvalidCredential    = errors.New("invalid credential")
)
