package migration

import (
	"fmt"

	"github.com/pkg/errors"
)

// Migration errors.
var (
	ErrMissingStep     = errors.New("missing migration step")
	ErrDowngrade       = errors.New("target version is lower than the store version")
	ErrInvalidVersion  = errors.New("invalid version")
	ErrNilSnapshot     = errors.New("nil snapshot")
	ErrInvalidStoreKey = errors.New("store name must not be empty")
)

// MissingStepError reports a coverage gap: versions of the requested range
// with no registered step. Version is the first of them.
type MissingStepError struct {
	Version int64
	Missing []int64
}

func (e *MissingStepError) Error() string {
	return fmt.Sprintf("no migration step registered for version %d", e.Version)
}

// Is makes errors.Is(err, ErrMissingStep) hold for every MissingStepError.
func (e *MissingStepError) Is(target error) bool {
	return target == ErrMissingStep
}
