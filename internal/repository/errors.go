package repository

import "errors"

// ErrNotFound is returned when a row lookup matches nothing.
var ErrNotFound = errors.New("not found")
