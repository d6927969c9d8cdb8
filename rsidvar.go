// Copyright 2024 The rsidvar Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package rsidvar

import (
	"fmt"

	"github.com/openvariant/rsidvar/internal/binsearch"
	"github.com/openvariant/rsidvar/internal/mmapfile"
	"github.com/openvariant/rsidvar/internal/tablefile"
)

// VariantKey packs (chromosome[5] | position[28] | alleles[31]) into 64
// bits, most significant first.  This library never decodes the allele
// bits; it only relies on chromosome and position being a high-bit prefix
// so that key order equals (chromosome, position) order.
const (
	chromShift = 59
	posShift   = 31
	alleleMask = uint64(1)<<posShift - 1
)

const (
	rsidWidth = 4
	vkWidth   = 8
)

// RSVK is an immutable view over a table of (rsID, VariantKey) rows sorted
// ascending by rsID.  One rsID may map to several VariantKeys; duplicates
// are streamed with Next or an iterator from Find.
//
// An RSVK may be shared freely across goroutines.  It must not outlive the
// mapping it was created from.
type RSVK struct {
	keys  binsearch.U32Column
	vals  binsearch.U64Column
	nrows uint64
	f     *mmapfile.File // non-nil only when opened via OpenRSVKFile
}

// VKRS is an immutable view over a table of (VariantKey, rsID) rows sorted
// ascending by VariantKey.  It has the same sharing and lifetime rules as
// RSVK.
type VKRS struct {
	keys  binsearch.U64Column
	vals  binsearch.U32Column
	nrows uint64
	f     *mmapfile.File
}

// NewRSVK interprets an already-mapped byte region as an rsID-sorted
// table.  The caller keeps ownership of the mapping and must keep it alive
// for as long as the view is used.
func NewRSVK(data []byte) (*RSVK, error) {
	cols, err := tablefile.Split(data, rsidWidth, vkWidth)
	if err != nil {
		return nil, fmt.Errorf("tablefile.Split: %w", err)
	}
	return &RSVK{
		keys:  binsearch.U32Column(cols.Key),
		vals:  binsearch.U64Column(cols.Value),
		nrows: cols.NRows,
	}, nil
}

// NewVKRS interprets an already-mapped byte region as a VariantKey-sorted
// table.  The caller keeps ownership of the mapping.
func NewVKRS(data []byte) (*VKRS, error) {
	cols, err := tablefile.Split(data, vkWidth, rsidWidth)
	if err != nil {
		return nil, fmt.Errorf("tablefile.Split: %w", err)
	}
	return &VKRS{
		keys:  binsearch.U64Column(cols.Key),
		vals:  binsearch.U32Column(cols.Value),
		nrows: cols.NRows,
	}, nil
}

// OpenRSVKFile memory-maps the table at path (usually rsvk.bin) and returns
// a view that owns the mapping.  Close releases it.
func OpenRSVKFile(path string) (*RSVK, error) {
	f, err := mmapfile.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmapfile.Open(%s): %w", path, err)
	}
	t, err := NewRSVK(f.Data())
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	t.f = f
	return t, nil
}

// OpenVKRSFile memory-maps the table at path (usually vkrs.bin) and returns
// a view that owns the mapping.  Close releases it.
func OpenVKRSFile(path string) (*VKRS, error) {
	f, err := mmapfile.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmapfile.Open(%s): %w", path, err)
	}
	t, err := NewVKRS(f.Data())
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	t.f = f
	return t, nil
}

// Close unmaps the table file if the view owns its mapping.  Views created
// with NewRSVK do not own a mapping and Close is a no-op for them.
func (t *RSVK) Close() error {
	if t.f == nil {
		return nil
	}
	return t.f.Close()
}

// Close unmaps the table file if the view owns its mapping.
func (t *VKRS) Close() error {
	if t.f == nil {
		return nil
	}
	return t.f.Close()
}

// NumRows returns the number of rows in the table.
func (t *RSVK) NumRows() uint64 { return t.nrows }

// NumRows returns the number of rows in the table.
func (t *VKRS) NumRows() uint64 { return t.nrows }

// RsID returns the key at row i.  i must be < NumRows.
func (t *RSVK) RsID(i uint64) uint32 { return t.keys.Get(i) }

// VariantKey returns the value at row i.  i must be < NumRows.
func (t *RSVK) VariantKey(i uint64) uint64 { return t.vals.Get(i) }

// VariantKey returns the key at row i.  i must be < NumRows.
func (t *VKRS) VariantKey(i uint64) uint64 { return t.keys.Get(i) }

// RsID returns the value at row i.  i must be < NumRows.
func (t *VKRS) RsID(i uint64) uint32 { return t.vals.Get(i) }
