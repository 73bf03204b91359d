package booking

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a status patch is not allowed by
// the transition table.
var ErrInvalidTransition = errors.New("status transition not allowed")

// ValidationError marks a request the caller can fix and resend
// (400-equivalent). Conflicts and lookups surface the store sentinels.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
