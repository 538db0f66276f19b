// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Validation errors are user-facing rejections without side effects.
	ErrorValidation     = errors.New("validation error")
	ErrorDuplicateEmail = fmt.Errorf("%w: email already in use", ErrorValidation)

	// Password hashing primitive failed.
	ErrorCodec = errors.New("password codec error")
)
