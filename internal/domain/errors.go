package domain

import "errors"

var (
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidCategory = errors.New("invalid category")
	ErrNotTemplate     = errors.New("work item is not a template")
	ErrNameCollision   = errors.New("name already in use")
)
