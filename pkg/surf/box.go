package surf

import (
	"errors"
	"fmt"
)

// ErrInvalidBox is returned for a malformed simulation box.
var ErrInvalidBox = errors.New("invalid simulation box")

// Box is the simulation domain: its dimensionality and global extent.
type Box struct {
	Dimension int
	Lo, Hi    [3]float64
}

// Prd returns the box edge lengths.
func (b Box) Prd() [3]float64 {
	return [3]float64{b.Hi[0] - b.Lo[0], b.Hi[1] - b.Lo[1], b.Hi[2] - b.Lo[2]}
}

// Validate checks the dimension and that every edge has positive length.
// A 2D box must straddle z = 0 so that 2D points lie strictly inside it.
func (b Box) Validate() error {
	if b.Dimension != 2 && b.Dimension != 3 {
		return fmt.Errorf("%w: dimension %d", ErrInvalidBox, b.Dimension)
	}
	for d := 0; d < 3; d++ {
		if b.Hi[d] <= b.Lo[d] {
			return fmt.Errorf("%w: axis %d has lo %g >= hi %g", ErrInvalidBox, d, b.Lo[d], b.Hi[d])
		}
	}
	if b.Dimension == 2 && (b.Lo[2] >= 0 || b.Hi[2] <= 0) {
		return fmt.Errorf("%w: 2d box z range [%g, %g] must contain 0", ErrInvalidBox, b.Lo[2], b.Hi[2])
	}
	return nil
}

// Inside reports whether x lies strictly inside the box on every axis.
func (b Box) Inside(x [3]float64) bool {
	for d := 0; d < 3; d++ {
		if x[d] <= b.Lo[d] || x[d] >= b.Hi[d] {
			return false
		}
	}
	return true
}
