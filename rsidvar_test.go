// Copyright 2024 The rsidvar Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package rsidvar

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pair struct {
	rsid uint32
	vk   uint64
}

// testPairs is the canonical fixture: rsID 0x0B maps to two VariantKeys,
// and VariantKey 0x4800A1FE439E3918 maps back to two rsIDs.
var testPairs = []pair{
	{0x00000001, 0x08027A2580338000},
	{0x00000007, 0x4800A1FE439E3918},
	{0x0000000B, 0x4800A1FE439E3918},
	{0x0000000B, 0xB800181C910D8000},
	{0x00000061, 0x80010274003A0000},
}

// rsvkBytes lays out pairs (which must already be sorted by rsID) in the
// raw rsvk.bin format.
func rsvkBytes(pairs []pair) []byte {
	buf := make([]byte, 12*len(pairs))
	vals := buf[4*len(pairs):]
	for i, p := range pairs {
		binary.BigEndian.PutUint32(buf[i*4:], p.rsid)
		binary.BigEndian.PutUint64(vals[i*8:], p.vk)
	}
	return buf
}

// vkrsBytes lays out pairs in the raw vkrs.bin format, sorting by
// VariantKey first.
func vkrsBytes(pairs []pair) []byte {
	sorted := append([]pair(nil), pairs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].vk < sorted[j].vk })

	buf := make([]byte, 12*len(sorted))
	vals := buf[8*len(sorted):]
	for i, p := range sorted {
		binary.BigEndian.PutUint64(buf[i*8:], p.vk)
		binary.BigEndian.PutUint32(vals[i*4:], p.rsid)
	}
	return buf
}

func testRSVK(t *testing.T) *RSVK {
	t.Helper()
	tbl, err := NewRSVK(rsvkBytes(testPairs))
	require.NoError(t, err)
	return tbl
}

func testVKRS(t *testing.T) *VKRS {
	t.Helper()
	tbl, err := NewVKRS(vkrsBytes(testPairs))
	require.NoError(t, err)
	return tbl
}

func TestNewRSVK(t *testing.T) {
	tbl := testRSVK(t)
	require.Equal(t, uint64(5), tbl.NumRows())

	assert.Equal(t, uint32(0x00000001), tbl.RsID(0))
	assert.Equal(t, uint64(0x08027A2580338000), tbl.VariantKey(0))
	assert.Equal(t, uint32(0x00000061), tbl.RsID(4))
	assert.Equal(t, uint64(0x80010274003A0000), tbl.VariantKey(4))

	// views over external mappings don't own anything to close
	require.NoError(t, tbl.Close())
}

func TestNewVKRS(t *testing.T) {
	tbl := testVKRS(t)
	require.Equal(t, uint64(5), tbl.NumRows())

	assert.Equal(t, uint64(0x08027A2580338000), tbl.VariantKey(0))
	assert.Equal(t, uint32(0x00000001), tbl.RsID(0))
	assert.Equal(t, uint64(0xB800181C910D8000), tbl.VariantKey(4))
	assert.Equal(t, uint32(0x0000000B), tbl.RsID(4))
}

func TestNewRSVKMalformed(t *testing.T) {
	// not a whole number of 12-byte records
	_, err := NewRSVK(make([]byte, 25))
	assert.Error(t, err)

	// keys out of order
	bad := rsvkBytes([]pair{{9, 1}, {3, 2}})
	_, err = NewRSVK(bad)
	assert.Error(t, err)
}

func TestOpenFiles(t *testing.T) {
	dir := t.TempDir()
	rsvkPath := filepath.Join(dir, "rsvk.bin")
	vkrsPath := filepath.Join(dir, "vkrs.bin")
	require.NoError(t, os.WriteFile(rsvkPath, rsvkBytes(testPairs), 0o644))
	require.NoError(t, os.WriteFile(vkrsPath, vkrsBytes(testPairs), 0o644))

	rv, err := OpenRSVKFile(rsvkPath)
	require.NoError(t, err)
	defer func() { require.NoError(t, rv.Close()) }()

	vr, err := OpenVKRSFile(vkrsPath)
	require.NoError(t, err)
	defer func() { require.NoError(t, vr.Close()) }()

	require.Equal(t, uint64(5), rv.NumRows())
	require.Equal(t, uint64(5), vr.NumRows())

	first := uint64(0)
	vk, ok := rv.FindFirst(&first, rv.NumRows()-1, 0x00000007)
	require.True(t, ok)
	assert.Equal(t, uint64(0x4800A1FE439E3918), vk)

	first = 0
	rsid, ok := vr.FindFirst(&first, vr.NumRows()-1, 0x4800A1FE439E3918)
	require.True(t, ok)
	assert.Equal(t, uint32(0x00000007), rsid)
}

func TestOpenFileErrors(t *testing.T) {
	_, err := OpenRSVKFile(filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)

	// mapping succeeds but the layout is rejected; the mapping must not leak
	path := filepath.Join(t.TempDir(), "short.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 7), 0o644))
	_, err = OpenVKRSFile(path)
	assert.Error(t, err)
}

// every pair present in both tables maps back to itself through the other
// table.
func TestRoundTrip(t *testing.T) {
	rv := testRSVK(t)
	vr := testVKRS(t)

	for _, p := range testPairs {
		var vks []uint64
		for it := rv.Find(p.rsid); it.Next(); {
			vks = append(vks, it.VariantKey())
		}
		assert.Contains(t, vks, p.vk, "rsid %#x", p.rsid)

		var rsids []uint32
		for it := vr.Find(p.vk); it.Next(); {
			rsids = append(rsids, it.RsID())
		}
		assert.Contains(t, rsids, p.rsid, "vk %#x", p.vk)
	}
}

func TestConcurrentReaders(t *testing.T) {
	rv := testRSVK(t)
	vr := testVKRS(t)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				for _, p := range testPairs {
					found := false
					for it := rv.Find(p.rsid); it.Next(); {
						found = found || it.VariantKey() == p.vk
					}
					if !found {
						t.Errorf("rsid %#x lost its mapping to %#x", p.rsid, p.vk)
						return
					}
					first, last := uint64(0), vr.NumRows()-1
					if _, ok := vr.FindFirst(&first, last, p.vk); !ok {
						t.Errorf("vk %#x not found", p.vk)
						return
					}
				}
			}
		}()
	}
	wg.Wait()
}
