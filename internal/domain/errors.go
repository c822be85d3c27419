package domain

import "errors"

var (
	ErrUnauthenticated   = errors.New("authentication required")
	ErrTransportFailure  = errors.New("transport failure")
	ErrServerError       = errors.New("server error")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrInvalidQuery      = errors.New("invalid query")
)
