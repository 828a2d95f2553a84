// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Single source of truth for shape/nil checks shared by the kernels.
//   - Return plain sentinels wrapped with the validator tag so call sites can
//     wrap again with their operation tag.

package matrix

import "fmt"

func validatorErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// ValidateNotNil ensures the matrix reference is non-nil.
func ValidateNotNil(m *Sparse) error {
	if m == nil {
		return validatorErrorf("ValidateNotNil", ErrNilMatrix)
	}
	return nil
}

// ValidateSameShape ensures a and b have equal dimensions. Assumes non-nil.
func ValidateSameShape(a, b *Sparse) error {
	if a.Rows() != b.Rows() {
		return validatorErrorf("ValidateSameShape: Rows", ErrDimensionMismatch)
	}
	if a.Cols() != b.Cols() {
		return validatorErrorf("ValidateSameShape: Columns", ErrDimensionMismatch)
	}
	return nil
}

// ValidateSquare checks Rows == Cols.
func ValidateSquare(m *Sparse) error {
	if err := ValidateNotNil(m); err != nil {
		return err
	}
	if m.Rows() != m.Cols() {
		return validatorErrorf("ValidateSquare", ErrNonSquare)
	}
	return nil
}

// ValidateMulCompatible checks a.Cols == b.Rows.
func ValidateMulCompatible(a, b *Sparse) error {
	if err := ValidateNotNil(a); err != nil {
		return err
	}
	if err := ValidateNotNil(b); err != nil {
		return err
	}
	if a.Cols() != b.Rows() {
		return validatorErrorf("ValidateMulCompatible", ErrDimensionMismatch)
	}
	return nil
}

// validateFinite rejects NaN/±Inf values.
func validateFinite(v []float64) error {
	for _, x := range v {
		if isNonFinite(x) {
			return validatorErrorf("validateFinite", ErrNaNInf)
		}
	}
	return nil
}
