package project

import "errors"

var (
	ErrInvalidSlug = errors.New("invalid slug")
	ErrInvalidType = errors.New("invalid artifact type")
)
