package services

import (
	"errors"

	"opsflow/internal/repositories"
)

var (
	ErrNotFound          = repositories.ErrNotFound
	ErrUnknownKind       = errors.New("unknown workflow kind")
	ErrMissingField      = errors.New("missing required field")
	ErrInvalidField      = errors.New("invalid field")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("forbidden")
	ErrStorageDisabled   = errors.New("document storage not configured")
	ErrJobRunning        = errors.New("job is already running")
)
