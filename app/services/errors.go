package services

import "errors"

var (
	// ErrPermissionDenied is returned when a user acts on something they do
	// not own.
	ErrPermissionDenied = errors.New("permission denied")
)

// nonFieldErrors is the ValidationError key for errors not tied to one field.
const nonFieldErrors = "__all__"
