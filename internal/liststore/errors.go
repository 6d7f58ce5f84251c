package liststore

import "errors"

// Sentinel errors for list store mutations.
var (
	ErrNotFound    = errors.New("resource not found in list")
	ErrDuplicateID = errors.New("resource id already present in list")
	ErrMissingID   = errors.New("resource has no id")
)
