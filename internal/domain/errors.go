package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username already exists")
)
