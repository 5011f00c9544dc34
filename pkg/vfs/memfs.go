// {{{ Copyright (c) Paul R. Tagliamonte <paultag@gmail.com> 2020-2021
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE. }}}

package vfs

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// MemFS is an in-memory Filesystem used by tests in place of the native
// implementation, so that ring store scenarios (including byte-level
// corruption) are deterministic and don't touch the real disk.
type MemFS struct {
	mu    sync.Mutex
	files map[string]*MemFile
	dirs  map[string]bool
}

// NewMemFS returns an empty in-memory filesystem.
func NewMemFS() *MemFS {
	return &MemFS{
		files: make(map[string]*MemFile),
		dirs:  make(map[string]bool),
	}
}

func (m *MemFS) Exists(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok, nil
}

func (m *MemFS) CreateDirectories(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dir := path
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		dir = path[:idx]
	}
	m.dirs[dir] = true
	return nil
}

func (m *MemFS) CreateEmptyFile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[path]; ok {
		return nil
	}
	m.files[path] = &MemFile{}
	return nil
}

func (m *MemFS) OpenReadWrite(path string) (FileHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("memfs: %s: no such file", path)
	}
	return f, nil
}

// Corrupt overwrites count bytes of path starting at absOffset with the
// given value, bypassing the FileHandle interface. It exists purely to let
// tests exercise the ring store's corruption-tolerance policy.
func (m *MemFS) Corrupt(path string, absOffset int64, value byte, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[path]
	if !ok {
		return fmt.Errorf("memfs: %s: no such file", path)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < count; i++ {
		idx := int(absOffset) + i
		if idx < 0 || idx >= len(f.data) {
			continue
		}
		f.data[idx] = value
	}
	return nil
}

// MemFile is an in-memory FileHandle backed by a growable byte slice.
type MemFile struct {
	mu   sync.Mutex
	data []byte
}

func (f *MemFile) Size() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.data)), nil
}

func (f *MemFile) Resize(size int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if size < 0 {
		return fmt.Errorf("memfs: negative size %d", size)
	}
	if int64(len(f.data)) >= size {
		f.data = f.data[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, f.data)
	f.data = grown
	return nil
}

func (f *MemFile) ReadAt(absOffset int64, buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if absOffset < 0 || absOffset >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(buf, f.data[absOffset:])
	if n < len(buf) {
		return n, io.EOF
	}
	return n, nil
}

func (f *MemFile) WriteAt(absOffset int64, buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	end := absOffset + int64(len(buf))
	if end > int64(len(f.data)) {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}
	return copy(f.data[absOffset:end], buf), nil
}

func (f *MemFile) Flush() error {
	return nil
}

func (f *MemFile) Close() error {
	return nil
}
