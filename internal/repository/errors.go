package repository

import "errors"

// ErrNotFound is returned by every lookup whose id (or key pair) does
// not resolve. Callers branch with errors.Is.
var ErrNotFound = errors.New("not found")
