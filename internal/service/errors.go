package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/maddi-booking/internal/repository"
)

// Error kinds returned by every service operation. Callers match them with
// errors.Is; the wrapped message carries the detail.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrConflict          = errors.New("conflict")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyUsed       = errors.New("invitation already used")
	ErrExpired           = errors.New("invitation expired")
	ErrUnauthorized      = errors.New("unauthorized")
)

func fail(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// storeErr translates repository sentinels into service kinds. Unknown
// errors are wrapped with the operation name and passed through.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fail(ErrNotFound, "%s", op)
	case errors.Is(err, repository.ErrConflict):
		return fail(ErrConflict, "%s", op)
	case errors.Is(err, repository.ErrStatusChanged):
		return fail(ErrInvalidTransition, "%s: already processed", op)
	case errors.Is(err, repository.ErrForbidden):
		return fail(ErrUnauthorized, "%s", op)
	}
	return fmt.Errorf("%s: %w", op, err)
}
