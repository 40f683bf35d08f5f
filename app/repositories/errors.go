package repositories

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateSlug     = errors.New("slug already used for this publish date")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateProfile  = errors.New("profile already exists")
)
