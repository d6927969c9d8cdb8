// Copyright 2024 The rsidvar Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package rsidvar maps between rsIDs and VariantKeys using two immutable,
// memory-mapped lookup tables:
//
//   - rsvk.bin: rows (rsID uint32, VariantKey uint64) sorted by rsID
//   - vkrs.bin: rows (VariantKey uint64, rsID uint32) sorted by VariantKey
//
// Each table stores its two columns back to back, column-major, with every
// integer big-endian so that byte order equals numeric order:
//
//	┌─────────────────────────┐
//	│ key column              │
//	│ nrows × key width, BE,  │
//	│ sorted ascending        │
//	├─────────────────────────┤
//	│ value column            │
//	│ nrows × value width, BE │
//	└─────────────────────────┘
//
// A table may alternatively be an Apache Arrow IPC file holding one record
// batch with the same two columns; both shapes are recognized at open time.
//
// Lookups are binary searches over the key column, O(log n) for the first
// match and O(1) per duplicate after that.  Both key spaces allow
// duplicates (one rsID can map to several VariantKeys after liftover, and
// vice versa), so the lookup operations carry an explicit cursor, or an
// iterator that wraps it:
//
//	t, err := rsidvar.OpenRSVKFile("rsvk.bin")
//	...
//	for it := t.Find(rsid); it.Next(); {
//		use(it.VariantKey())
//	}
//
// The vkrs table additionally answers chromosome+position window queries
// through ChromPosRange, exploiting the fact that chromosome and position
// occupy the high bits of a VariantKey.
//
// Views are immutable and safe for concurrent readers; cursors and
// iterators are not, keep them goroutine-local.
package rsidvar
