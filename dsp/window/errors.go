package window

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSize is returned for a non-positive window length.
	ErrInvalidSize = errors.New("window: invalid size")
	// ErrInvalidBeta is returned for a negative Kaiser beta.
	ErrInvalidBeta = errors.New("window: invalid kaiser beta")
	// ErrLengthMismatch is returned when samples and coefficients differ in
	// length.
	ErrLengthMismatch = errors.New("window: samples and coefficients differ in length")
)

func validateLength(size int) error {
	if size <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return nil
}

func validateKaiser(size int, beta float64) error {
	if err := validateLength(size); err != nil {
		return err
	}
	if beta < 0 {
		return fmt.Errorf("%w: %f", ErrInvalidBeta, beta)
	}
	return nil
}
