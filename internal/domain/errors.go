package domain

import "errors"

var (
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrInvalidSubject   = errors.New("invalid subject")
	ErrStoreUnavailable = errors.New("karma store unavailable")

	ErrProtocolViolation = errors.New("protocol violation")
	ErrMalformedLine     = errors.New("malformed line")
	ErrConnectionClosed  = errors.New("connection closed")
	ErrConnection        = errors.New("connection error")
	ErrFatalConfig       = errors.New("fatal configuration error")
)
