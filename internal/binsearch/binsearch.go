// Copyright 2024 The rsidvar Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package binsearch implements lower/upper bound searches over columns of
// fixed-width, big-endian unsigned integers stored in a flat byte slice.
// Columns are stored big-endian so that byte-lexicographic order equals
// numeric order; accessors byte-swap on little-endian hosts via
// encoding/binary.
package binsearch

import (
	"encoding/binary"
)

// U32Column is a read-only view into a byte slice as if it was a []uint32
// of big-endian values.
type U32Column []byte

// U64Column is a read-only view into a byte slice as if it was a []uint64
// of big-endian values.
type U64Column []byte

// Rows returns the number of 4-byte elements in the column.
func (c U32Column) Rows() uint64 {
	return uint64(len(c) / 4)
}

// Rows returns the number of 8-byte elements in the column.
func (c U64Column) Rows() uint64 {
	return uint64(len(c) / 8)
}

func (c U32Column) Get(i uint64) uint32 {
	return binary.BigEndian.Uint32(c[i*4 : i*4+4])
}

func (c U64Column) Get(i uint64) uint64 {
	return binary.BigEndian.Uint64(c[i*8 : i*8+8])
}

// LowerBound returns the smallest index i in [lo, hi+1] such that
// c.Get(i) >= key, treating indexes past hi as +inf.  The column must be
// sorted ascending over [lo, hi] and hi must be a valid index.
func (c U32Column) LowerBound(key uint32, lo, hi uint64) uint64 {
	end := hi + 1
	for lo < end {
		mid := (lo + end) >> 1
		if c.Get(mid) < key {
			lo = mid + 1
		} else {
			end = mid
		}
	}
	return lo
}

// UpperBound returns the smallest index i in [lo, hi+1] such that
// c.Get(i) > key, treating indexes past hi as +inf.
func (c U32Column) UpperBound(key uint32, lo, hi uint64) uint64 {
	end := hi + 1
	for lo < end {
		mid := (lo + end) >> 1
		if c.Get(mid) <= key {
			lo = mid + 1
		} else {
			end = mid
		}
	}
	return lo
}

// LowerBound returns the smallest index i in [lo, hi+1] such that
// c.Get(i) >= key, treating indexes past hi as +inf.
func (c U64Column) LowerBound(key uint64, lo, hi uint64) uint64 {
	return c.LowerBoundMask(key, ^uint64(0), lo, hi)
}

// UpperBound returns the smallest index i in [lo, hi+1] such that
// c.Get(i) > key, treating indexes past hi as +inf.
func (c U64Column) UpperBound(key uint64, lo, hi uint64) uint64 {
	return c.UpperBoundMask(key, ^uint64(0), lo, hi)
}

// LowerBoundMask is LowerBound comparing only the bits selected by mask:
// the smallest index i in [lo, hi+1] such that c.Get(i)&mask >= key&mask.
// mask must be an all-ones high-bit prefix; a column sorted on full keys is
// also sorted on any such prefix, so the search stays correct.
func (c U64Column) LowerBoundMask(key, mask uint64, lo, hi uint64) uint64 {
	key &= mask
	end := hi + 1
	for lo < end {
		mid := (lo + end) >> 1
		if c.Get(mid)&mask < key {
			lo = mid + 1
		} else {
			end = mid
		}
	}
	return lo
}

// UpperBoundMask is UpperBound comparing only the bits selected by mask.
func (c U64Column) UpperBoundMask(key, mask uint64, lo, hi uint64) uint64 {
	key &= mask
	end := hi + 1
	for lo < end {
		mid := (lo + end) >> 1
		if c.Get(mid)&mask <= key {
			lo = mid + 1
		} else {
			end = mid
		}
	}
	return lo
}
