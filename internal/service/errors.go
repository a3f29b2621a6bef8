package service

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrDuplicateCategory  = errors.New("category already exists")
	ErrInvalidReference   = errors.New("invalid category id")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
)
