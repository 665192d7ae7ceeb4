package matching

import (
	"errors"
	"fmt"
)

// Recoverable manual-match failures. Handlers map these to HTTP statuses.
var (
	ErrRequestNotFound  = errors.New("request not found in leftovers")
	ErrEmptySelection   = errors.New("at least one moved row and one note fragment must be selected")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrStaleIndex       = errors.New("selected index already consumed")
	ErrQuantityExceeded = errors.New("quantity exceeds remaining moved quantity")
)

// ParseError is a fatal upload failure: the spreadsheet structure itself is
// unreadable. No session is created when it is returned.
type ParseError struct {
	File   string
	Detail string
}

func (e *ParseError) Error() string {
	if e.File == "" {
		return "parse error: " + e.Detail
	}
	return fmt.Sprintf("parse error in %s: %s", e.File, e.Detail)
}
