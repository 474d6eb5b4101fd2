// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios and map
// them onto HTTP status codes.
package repository

import "errors"

// ErrNotFound is returned when an ID does not resolve to any record.
// Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique key is already taken, such as a
// duplicate email/phone on an employee or a second link for a contentID.
// Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they are not permitted to touch. Handlers translate this into
// an HTTP 401/403 response.
var ErrForbidden = errors.New("forbidden")
