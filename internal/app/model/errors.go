package model

import "errors"

var (
	// ErrNotFound is returned when a required document or row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned before any remote call when input violates a precondition.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrForbidden is returned when a user modifies content they do not own.
	ErrForbidden = errors.New("forbidden")
	// ErrUnavailable marks an optional backend that is not configured.
	ErrUnavailable = errors.New("service unavailable")

	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)
