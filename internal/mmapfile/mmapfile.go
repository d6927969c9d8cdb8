// Copyright 2024 The rsidvar Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package mmapfile wraps a read-only memory mapping of a file.  Lookups
// over the mapped tables are random-access, so the mapping is advised with
// MADV_RANDOM up front.
package mmapfile

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"
)

var ErrEmptyFile = errors.New("mmapfile: file is empty")

// File is a read-only memory mapping of an entire file.  The mapping must
// outlive every view derived from its Data; Close unmaps it.
type File struct {
	data     []byte
	isClosed atomic.Bool
}

// Open maps the named file read-only.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s): %w", path, err)
	}
	defer func() {
		// the mapping keeps its own reference to the file
		_ = f.Close()
	}()

	stats, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("f.Stat: %w", err)
	}
	size := stats.Size()
	if size == 0 {
		return nil, ErrEmptyFile
	}
	if size != int64(int(size)) {
		return nil, fmt.Errorf("file too large to map: %d bytes", size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("unix.Mmap(%s): %w", path, err)
	}

	if err := unix.Madvise(data, syscall.MADV_RANDOM); err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("madvise: %w", err)
	}

	return &File{data: data}, nil
}

// Data returns the mapped bytes.  The slice is invalid after Close.
func (f *File) Data() []byte {
	return f.data
}

// Len returns the size of the mapping in bytes.
func (f *File) Len() int {
	return len(f.data)
}

// Close unmaps the file.  It is safe to call more than once.
func (f *File) Close() error {
	if f.isClosed.Swap(true) {
		return nil
	}
	data := f.data
	f.data = nil
	if data == nil {
		return nil
	}
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("unix.Munmap: %w", err)
	}
	return nil
}
