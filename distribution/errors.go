package distribution

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned when an operation has no implementation
// for a distribution, such as the entropy of a point mass.
var ErrUnsupported = errors.New("operation not supported by distribution")

// ErrScalarSimplex is returned when constructing a simplex distribution
// (Multinomial or Dirichlet) with K=1, where the single coordinate is
// identically 1.
var ErrScalarSimplex = errors.New("simplex distribution is not supported " +
	"for K=1")

// IndexError is returned when a factor index falls outside a
// distribution's factor range. It is never clamped silently.
type IndexError struct {
	Index      int
	NumFactors int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("factor index %d out of range [0, %d)", e.Index,
		e.NumFactors)
}
