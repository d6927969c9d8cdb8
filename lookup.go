// Copyright 2024 The rsidvar Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package rsidvar

// The cursor protocol is shared by both tables.  A cursor is a bare row
// index owned by the caller:
//
//   - FindFirst narrows [*first, last] with a lower-bound search and leaves
//     *first on the first matching row, or on last+1 when the key is
//     absent.
//   - Next advances the cursor by one row and reports whether it still sits
//     on the same key, yielding duplicates in stored order at O(1) apiece.
//   - once a cursor reaches last+1 it is exhausted: further Next calls
//     return false without touching the mapping.
//
// On a miss both the ok flag is false and the value is zero; 0 is never a
// valid rsID and chromosome 0 makes a VariantKey of 0 unencodable, so the
// zero value doubles as the C-style sentinel.

// FindFirst searches [*first, last] for the first row keyed by rsid and
// returns its VariantKey.  On success *first holds the matching row; on a
// miss *first is set to last+1.  The table must not be empty and last must
// be < NumRows.
func (t *RSVK) FindFirst(first *uint64, last uint64, rsid uint32) (vk uint64, ok bool) {
	i := t.keys.LowerBound(rsid, *first, last)
	if i <= last && t.keys.Get(i) == rsid {
		*first = i
		return t.vals.Get(i), true
	}
	*first = last + 1
	return 0, false
}

// Next advances the cursor to the following row and returns its VariantKey
// if that row is still keyed by rsid.  *pos must come from a prior
// FindFirst or Next call with the same rsid and last.
func (t *RSVK) Next(pos *uint64, last uint64, rsid uint32) (vk uint64, ok bool) {
	if p := *pos + 1; p <= last && t.keys.Get(p) == rsid {
		*pos = p
		return t.vals.Get(p), true
	}
	*pos = last + 1
	return 0, false
}

// FindFirst searches [*first, last] for the first row keyed by vk and
// returns its rsID.  On success *first holds the matching row; on a miss
// *first is set to last+1.
func (t *VKRS) FindFirst(first *uint64, last uint64, vk uint64) (rsid uint32, ok bool) {
	i := t.keys.LowerBound(vk, *first, last)
	if i <= last && t.keys.Get(i) == vk {
		*first = i
		return t.vals.Get(i), true
	}
	*first = last + 1
	return 0, false
}

// Next advances the cursor to the following row and returns its rsID if
// that row is still keyed by vk.
func (t *VKRS) Next(pos *uint64, last uint64, vk uint64) (rsid uint32, ok bool) {
	if p := *pos + 1; p <= last && t.keys.Get(p) == vk {
		*pos = p
		return t.vals.Get(p), true
	}
	*pos = last + 1
	return 0, false
}

// ChromPosRange searches [*first, *last] for rows whose VariantKey falls on
// chromosome chrom with position in [posMin, posMax], and narrows *first
// and *last to the matching run.  It returns the rsID at *first; the
// remaining rows are read directly with RsID(i) for i in [*first, *last].
// On a miss *first is set to *last+1 and *last is left alone.
//
// chrom must be < 32 and posMax < 1<<28; chromosome and position sit in the
// top bits of the key, so the window is two full-key bounds with the allele
// bits cleared and filled respectively.
func (t *VKRS) ChromPosRange(first, last *uint64, chrom uint8, posMin, posMax uint32) (rsid uint32, ok bool) {
	vkMin := uint64(chrom)<<chromShift | uint64(posMin)<<posShift
	vkMax := uint64(chrom)<<chromShift | uint64(posMax)<<posShift | alleleMask

	lo := t.keys.LowerBound(vkMin, *first, *last)
	// end is one past the last matching row; comparing before decrementing
	// keeps the miss check safe when end is 0
	end := t.keys.UpperBound(vkMax, lo, *last)
	if lo >= end {
		*first = *last + 1
		return 0, false
	}
	*first = lo
	*last = end - 1
	return t.vals.Get(lo), true
}

// RSVKIter streams the VariantKeys stored for a single rsID, in table
// order.  Iterators are cheap and caller-owned; independent iterators over
// one table may run concurrently.
type RSVKIter struct {
	t       *RSVK
	rsid    uint32
	pos     uint64
	last    uint64
	vk      uint64
	started bool
	done    bool
}

// Find returns an iterator over every row keyed by rsid.
func (t *RSVK) Find(rsid uint32) *RSVKIter {
	it := &RSVKIter{t: t, rsid: rsid, done: t.nrows == 0}
	if !it.done {
		it.last = t.nrows - 1
	}
	return it
}

// Next advances to the next matching row, returning false once the rows
// for this rsID are used up.
func (it *RSVKIter) Next() bool {
	if it.done {
		return false
	}
	var ok bool
	if !it.started {
		it.started = true
		it.vk, ok = it.t.FindFirst(&it.pos, it.last, it.rsid)
	} else {
		it.vk, ok = it.t.Next(&it.pos, it.last, it.rsid)
	}
	it.done = !ok
	return ok
}

// Index returns the row of the current match.
func (it *RSVKIter) Index() uint64 { return it.pos }

// VariantKey returns the value of the current match.
func (it *RSVKIter) VariantKey() uint64 { return it.vk }

// VKRSIter streams the rsIDs stored for a single VariantKey, in table
// order.
type VKRSIter struct {
	t       *VKRS
	vk      uint64
	pos     uint64
	last    uint64
	rsid    uint32
	started bool
	done    bool
}

// Find returns an iterator over every row keyed by vk.
func (t *VKRS) Find(vk uint64) *VKRSIter {
	it := &VKRSIter{t: t, vk: vk, done: t.nrows == 0}
	if !it.done {
		it.last = t.nrows - 1
	}
	return it
}

// Next advances to the next matching row, returning false once the rows
// for this VariantKey are used up.
func (it *VKRSIter) Next() bool {
	if it.done {
		return false
	}
	var ok bool
	if !it.started {
		it.started = true
		it.rsid, ok = it.t.FindFirst(&it.pos, it.last, it.vk)
	} else {
		it.rsid, ok = it.t.Next(&it.pos, it.last, it.vk)
	}
	it.done = !ok
	return ok
}

// Index returns the row of the current match.
func (it *VKRSIter) Index() uint64 { return it.pos }

// RsID returns the value of the current match.
func (it *VKRSIter) RsID() uint32 { return it.rsid }
