package repository

import "errors"

// Common repository errors
var (
	ErrInvalidInput = errors.New("invalid input")
)
