package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound          = errors.New("resource not found")
	ErrDatasetNotFound   = fmt.Errorf("%w: dataset", ErrNotFound)
	ErrRunNotFound       = fmt.Errorf("%w: comparison run", ErrNotFound)
	ErrAttributeNotFound = fmt.Errorf("%w: attribute", ErrNotFound)

	// Distribution errors
	ErrEmptyDistribution = errors.New("empty distribution: all counts are zero")
	ErrCategoryMismatch  = errors.New("distributions do not share a category set")

	// Binning errors
	ErrOutOfRange  = errors.New("value outside configured bin edges")
	ErrInvalidSpec = errors.New("invalid bin specification")

	// Comparison errors
	ErrInsufficientData = errors.New("insufficient data for multi-dimensional comparison")
	ErrNoDateAxis       = errors.New("attribute has no usable date axis")
	ErrNoCommonDates    = errors.New("tables share no comparison dates")
	ErrInvalidWeights   = errors.New("invalid aggregate weights")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewEmptyDistributionError(attribute string, date string) error {
	return fmt.Errorf("%w (attribute %s, date %s)", ErrEmptyDistribution, attribute, date)
}

func NewOutOfRangeError(value, low, high float64) error {
	return fmt.Errorf("%w: %g not in [%g, %g)", ErrOutOfRange, value, low, high)
}

func NewInsufficientDataError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInsufficientData, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsEmptyDistributionError(err error) bool {
	return errors.Is(err, ErrEmptyDistribution)
}

func IsOutOfRangeError(err error) bool {
	return errors.Is(err, ErrOutOfRange)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}
