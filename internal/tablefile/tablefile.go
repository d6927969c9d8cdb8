// Copyright 2024 The rsidvar Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package tablefile locates the key and value columns of a two-column
// lookup table inside a mapped byte region.
//
// Two on-disk shapes are recognized:
//
//   - raw layout: the key column starts at byte 0, immediately followed by
//     the value column; the row count is the region size divided by the
//     record stride.
//   - Arrow file layout: a standard Arrow IPC file holding exactly one
//     record batch of exactly two columns, the first being the sorted key
//     column.  Recognized by the ARROW1 magic.
//
// In both shapes the numeric payload is the same: fixed-width unsigned
// integers stored big-endian, keys ascending.
package tablefile

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"
)

var (
	ErrTruncated = errors.New("tablefile: size is not a whole number of records")
	ErrNotSorted = errors.New("tablefile: key column is not sorted ascending")
)

var arrowMagic = []byte("ARROW1\x00\x00")

// Columns holds the located column buffers of one table.
type Columns struct {
	Key   []byte // NRows * key-width bytes, big-endian, ascending
	Value []byte // NRows * value-width bytes, big-endian
	NRows uint64
}

// Split interprets data as a two-column table with the given column widths
// and returns the column buffers.  For the raw layout the returned slices
// alias data; for the Arrow layout they are copied out of the decoded
// batch at open time.
func Split(data []byte, keyWidth, valueWidth int) (Columns, error) {
	var cols Columns
	var err error
	if bytes.HasPrefix(data, arrowMagic) {
		cols, err = splitArrow(data, keyWidth, valueWidth)
	} else {
		cols, err = splitRaw(data, keyWidth, valueWidth)
	}
	if err != nil {
		return Columns{}, err
	}
	if err := checkSorted(cols.Key, keyWidth, cols.NRows); err != nil {
		return Columns{}, err
	}
	return cols, nil
}

func splitRaw(data []byte, keyWidth, valueWidth int) (Columns, error) {
	stride := keyWidth + valueWidth
	if len(data)%stride != 0 {
		return Columns{}, fmt.Errorf("%w: %d bytes, %d byte stride", ErrTruncated, len(data), stride)
	}
	nrows := len(data) / stride
	return Columns{
		Key:   data[:nrows*keyWidth],
		Value: data[nrows*keyWidth : nrows*stride],
		NRows: uint64(nrows),
	}, nil
}

func splitArrow(data []byte, keyWidth, valueWidth int) (Columns, error) {
	rdr, err := ipc.NewFileReader(bytes.NewReader(data), ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return Columns{}, fmt.Errorf("ipc.NewFileReader: %w", err)
	}
	defer func() {
		_ = rdr.Close()
	}()

	if n := rdr.NumRecords(); n != 1 {
		return Columns{}, fmt.Errorf("tablefile: want exactly 1 record batch, file has %d", n)
	}
	rec, err := rdr.Record(0)
	if err != nil {
		return Columns{}, fmt.Errorf("rdr.Record(0): %w", err)
	}
	if n := rec.NumCols(); n != 2 {
		return Columns{}, fmt.Errorf("tablefile: want exactly 2 columns, batch has %d", n)
	}

	nrows := rec.NumRows()
	key, err := columnBytes(rec.Column(0), keyWidth, nrows)
	if err != nil {
		return Columns{}, fmt.Errorf("key column: %w", err)
	}
	value, err := columnBytes(rec.Column(1), valueWidth, nrows)
	if err != nil {
		return Columns{}, fmt.Errorf("value column: %w", err)
	}
	return Columns{Key: key, Value: value, NRows: uint64(nrows)}, nil
}

// columnBytes copies the raw data buffer of a fixed-width column out of the
// batch.  The ipc reader owns the decoded buffers, so aliasing them past
// Close is not an option.
func columnBytes(col arrow.Array, width int, nrows int64) ([]byte, error) {
	dt, ok := col.DataType().(arrow.FixedWidthDataType)
	if !ok {
		return nil, fmt.Errorf("tablefile: column type %s is not fixed-width", col.DataType())
	}
	if w := dt.BitWidth() / 8; w != width {
		return nil, fmt.Errorf("tablefile: column is %d bytes wide, want %d", w, width)
	}
	if col.NullN() != 0 {
		return nil, fmt.Errorf("tablefile: column has %d null entries", col.NullN())
	}

	buffers := col.Data().Buffers()
	if len(buffers) < 2 || buffers[1] == nil {
		return nil, errors.New("tablefile: column has no data buffer")
	}
	raw := buffers[1].Bytes()
	start := col.Data().Offset() * width
	end := start + int(nrows)*width
	if end > len(raw) {
		return nil, fmt.Errorf("tablefile: data buffer is %d bytes, want %d", len(raw), end)
	}
	return append([]byte(nil), raw[start:end]...), nil
}

// sortedSampleRows bounds the number of adjacent-row comparisons done at
// open time.  A full scan of a multi-gigabyte mapping would fault in every
// page, so we settle for a prefix plus evenly spaced probes.
const sortedSampleRows = 64

// checkSorted rejects key columns whose sampled rows are out of order.
// Keys are big-endian, so bytes.Compare agrees with numeric order.
func checkSorted(key []byte, width int, nrows uint64) error {
	if nrows < 2 {
		return nil
	}
	at := func(i uint64) []byte {
		return key[i*uint64(width) : (i+1)*uint64(width)]
	}

	prefix := nrows - 1
	if prefix > sortedSampleRows {
		prefix = sortedSampleRows
	}
	for i := uint64(0); i < prefix; i++ {
		if bytes.Compare(at(i), at(i+1)) > 0 {
			return fmt.Errorf("%w: rows %d and %d", ErrNotSorted, i, i+1)
		}
	}

	step := nrows / sortedSampleRows
	if step < 2 {
		return nil
	}
	for i := step; i+1 < nrows; i += step {
		if bytes.Compare(at(i), at(i+1)) > 0 {
			return fmt.Errorf("%w: rows %d and %d", ErrNotSorted, i, i+1)
		}
	}
	return nil
}
