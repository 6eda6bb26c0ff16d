package utils

import (
	"errors"
	"fmt"
)

// Error taxonomy for the booking core. Services wrap these sentinels with
// fmt.Errorf("...: %w", ...) so handlers can map them with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// Allocation failure signals. Each one wraps a taxonomy sentinel so a single
// errors.Is check on the category still matches.
var (
	ErrSeatNotFound         = fmt.Errorf("%w: seat does not exist on this run", ErrNotFound)
	ErrSeatAlreadyAllocated = fmt.Errorf("%w: seat is already allocated", ErrConflict)
	ErrDuplicateSeatRequest = fmt.Errorf("%w: duplicate seat in request", ErrValidation)
)
