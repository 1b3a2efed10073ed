package app

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrProtectedCategory = errors.New("well-known category cannot be deleted")
)
