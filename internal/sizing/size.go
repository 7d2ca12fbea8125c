// Package sizing provides safe size arithmetic and conversions to prevent overflow.
package sizing

import "math"

// MaxSafeInteger is the largest integer a float64 represents exactly (2^53 - 1).
// File sizes in archive headers are JSON numbers and must not exceed it.
const MaxSafeInteger uint64 = 1<<53 - 1

// ToInt converts a uint64 to int, returning overflowErr if it doesn't fit.
func ToInt(size uint64, overflowErr error) (int, error) {
	if size > uint64(math.MaxInt) {
		return 0, overflowErr
	}
	return int(size), nil
}

// ToInt64 converts a uint64 to int64, returning overflowErr if it doesn't fit.
func ToInt64(size uint64, overflowErr error) (int64, error) {
	if size > uint64(math.MaxInt64) {
		return 0, overflowErr
	}
	return int64(size), nil
}

// AddUint64 adds two uint64 values, returning (result, false) on overflow.
func AddUint64(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// Range converts an absolute [start+offset, start+offset+size) region to
// int64 section bounds, returning overflowErr if any part does not fit.
func Range(start, offset, size uint64, overflowErr error) (off, n int64, err error) {
	abs, ok := AddUint64(start, offset)
	if !ok {
		return 0, 0, overflowErr
	}
	end, ok := AddUint64(abs, size)
	if !ok {
		return 0, 0, overflowErr
	}
	if _, err := ToInt64(end, overflowErr); err != nil {
		return 0, 0, err
	}
	return int64(abs), int64(size), nil //nolint:gosec // bounded by end check above
}
