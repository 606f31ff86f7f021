package readsurf

import (
	"errors"
	"fmt"
)

// Ingestion errors. Every error returned by Command or Ingest wraps one of
// these, and every rank of a group returns the same error for the same input.
var (
	ErrCommand     = errors.New("invalid read_surf command")
	ErrTransform   = errors.New("invalid read_surf geometry transformation")
	ErrFormat      = errors.New("invalid surf file")
	ErrCoordinator = errors.New("surf file read failed on coordinator")
	ErrInvalidSurf = errors.New("invalid surf geometry")
)

// Check names a validation pass that counts defects.
type Check int

// Validation checks.
const (
	CheckInside Check = iota
	CheckPointPairs
	CheckWatertight2D
	CheckWatertight3D
)

// String returns the check name.
func (c Check) String() string {
	switch c {
	case CheckInside:
		return "inside"
	case CheckPointPairs:
		return "point-pairs"
	case CheckWatertight2D:
		return "watertight-2d"
	case CheckWatertight3D:
		return "watertight-3d"
	default:
		return fmt.Sprintf("Check(%d)", int(c))
	}
}

// DefectError reports how many violations a validation pass found.
type DefectError struct {
	Check Check
	Count int
}

func (e *DefectError) Error() string {
	switch e.Check {
	case CheckInside:
		return fmt.Sprintf("%d read_surf points are not inside simulation box", e.Count)
	case CheckPointPairs:
		return fmt.Sprintf("%d read_surf point pairs are too close", e.Count)
	case CheckWatertight2D:
		return fmt.Sprintf("%d read_surf lines are not watertight", e.Count)
	case CheckWatertight3D:
		return fmt.Sprintf("%d read_surf triangle edges are not watertight", e.Count)
	default:
		return fmt.Sprintf("%d read_surf %s defects", e.Count, e.Check)
	}
}

// Unwrap makes every DefectError match ErrInvalidSurf.
func (e *DefectError) Unwrap() error {
	return ErrInvalidSurf
}

// defects returns a DefectError for a nonzero count, or nil.
func defects(c Check, n int) error {
	if n == 0 {
		return nil
	}
	return &DefectError{Check: c, Count: n}
}
