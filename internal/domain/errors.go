package domain

import "errors"

// ErrNotFound is returned when a requested document does not exist.
// Handlers translate it to 404; every other failure is a 500.
var ErrNotFound = errors.New("not found")
