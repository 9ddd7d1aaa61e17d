package domain

import "errors"

var (
	// ErrContactNotFound is returned when no contact has the requested id.
	ErrContactNotFound = errors.New("contact not found")
	// ErrDuplicateContact is returned when a write would break (name, location, email) uniqueness.
	ErrDuplicateContact = errors.New("contact with the same name, location and email already exists")
	// ErrInvalidContact is returned for payloads that cannot be turned into a contact.
	ErrInvalidContact = errors.New("invalid contact")
	// ErrRunNotFound is returned when no crawl run has the requested id.
	ErrRunNotFound = errors.New("crawl run not found")
)
