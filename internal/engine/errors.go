package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Validation error kinds. A ValidationError unwraps to exactly one of these.
var (
	ErrCardNotFound    = errors.New("card not found in hand")
	ErrBlockedByChance = errors.New("blocked by chance card")
	ErrInvalidOutcome  = errors.New("invalid win/loss outcome")
	ErrNotWinLoss      = errors.New("card is not a win/loss card")
	ErrNotEligible     = errors.New("player is not eligible for this card type")
	ErrDeckEmpty       = errors.New("no cards of this type left in deck")
	ErrPlayerNotFound  = errors.New("player not found in game")
)

// ValidationError rejects an action before anything is written.
// Its message is safe to show to players verbatim.
type ValidationError struct {
	Kind     error
	Message  string
	Blocking []string // names of the cards blocking the action, if any
}

func (e *ValidationError) Error() string {
	if len(e.Blocking) > 0 {
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Blocking, ", "))
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func invalid(kind error, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err rejected the action without mutating anything.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
