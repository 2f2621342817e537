package fx

import (
	"errors"
	"fmt"
)

// ErrConfiguration groups every error rejected at configuration time.
// Use errors.Is(err, ErrConfiguration) to test for the class.
var ErrConfiguration = errors.New("fx: configuration error")

var (
	ErrArenaExhausted     = fmt.Errorf("%w: arena exhausted", ErrConfiguration)
	ErrDuplicateAlgorithm = fmt.Errorf("%w: duplicate algorithm", ErrConfiguration)
	ErrInvalidAlgorithm   = fmt.Errorf("%w: invalid algorithm", ErrConfiguration)
	ErrTooManyParams      = fmt.Errorf("%w: too many parameters", ErrConfiguration)
)
