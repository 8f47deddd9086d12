package services

import "errors"

// Service-level outcomes handlers classify with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrNotOwner           = errors.New("you must own a store in order to edit it")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNoAccount          = errors.New("no account with that email exists")
	ErrInvalidToken       = errors.New("password reset token is invalid or expired")
)
