package extractor

import (
	"errors"
	"fmt"
)

var errEmptyRegion = errors.New("region has no nodes")

// RegionError reports a listing that could not be extracted at all.
type RegionError struct {
	Index int
	Err   error
}

func (e *RegionError) Error() string {
	return fmt.Errorf("region %d: %w", e.Index, e.Err).Error()
}

func (e *RegionError) Unwrap() error {
	return e.Err
}
