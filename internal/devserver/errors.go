package devserver

import "errors"

// Sentinel errors for server operations.
var (
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrUnauthorized       = errors.New("not authenticated")
	ErrForbidden          = errors.New("only the project owner can update it")
	ErrNotMember          = errors.New("not a member of this project")
	ErrNotOwner           = errors.New("only the project owner can add members")
	ErrUserNotFound       = errors.New("user to add not found")
)
