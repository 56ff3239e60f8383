package auth

import "errors"

var (
	ErrStoreRequired = errors.New("credential store is required")
	ErrEmptyEmail    = errors.New("email is required")
)
