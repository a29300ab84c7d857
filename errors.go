package stablelog

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned for a weight vector with no elements.
	ErrEmptyInput = errors.New("stablelog: empty input")

	// ErrDegenerateInput is returned by Normalize when every weight is -Inf,
	// leaving no finite mass to normalize.
	ErrDegenerateInput = errors.New("stablelog: all weights are -Inf")

	// ErrDomain is matched by every *DomainError through errors.Is.
	ErrDomain = errors.New("stablelog: argument out of domain")
)

// DomainError reports an argument outside the domain of Op.
type DomainError struct {
	Op string
	X  float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("stablelog: %s: argument %g out of domain", e.Op, e.X)
}

// Is reports whether target is ErrDomain.
func (e *DomainError) Is(target error) bool {
	return target == ErrDomain
}
