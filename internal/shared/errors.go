package shared

import "errors"

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a malformed request or payload.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidScope indicates a role/tenant ownership mismatch or conflicting scope targets.
	ErrInvalidScope = errors.New("invalid scope")
	// ErrForbidden indicates the operation is not allowed for the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict indicates a uniqueness conflict that could not be resolved.
	ErrConflict = errors.New("conflict")
)
