package models

import "errors"

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("post is not found")
	ErrForbidden    = errors.New("user is not allowed to modify this post")
	ErrRateLimited  = errors.New("too many requests")
	ErrInternal     = errors.New("internal consistency error")
	ErrUnauthorized = errors.New("user token is invalid")
)

// Kind is the machine-readable error code exposed to clients.
type Kind string

const (
	KindValidation   Kind = "BAD_REQUEST"
	KindNotFound     Kind = "NOT_FOUND"
	KindForbidden    Kind = "FORBIDDEN"
	KindRateLimited  Kind = "TOO_MANY_REQUESTS"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindInternal     Kind = "INTERNAL_SERVER_ERROR"
)

// KindOf classifies err. Anything outside the taxonomy is internal.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	default:
		return KindInternal
	}
}
