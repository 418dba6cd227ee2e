package db

import "errors"

// ErrNotFound is returned when a referenced note id does not exist.
var ErrNotFound = errors.New("note not found")

// ErrStructuralConflict is returned when a move would make a note its own
// ancestor (self-parent or cycle). The store is left unchanged.
var ErrStructuralConflict = errors.New("structural conflict")
