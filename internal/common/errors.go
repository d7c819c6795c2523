// Package common defines shared constants and sentinel errors used across
// client and server layers of Studaxis. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Remote content-index errors. Both degrade to cached data on the
	// student side; they stay distinct so logs can tell the cases apart.
	ErrOffline        = errors.New("remote unreachable")
	ErrRemoteRejected = errors.New("remote rejected request")
)
