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

// Package vfs defines the filesystem seam the ring store is built against.
// The native implementation is a thin wrapper over os.File; tests inject
// the in-memory implementation in memfs.go instead.
package vfs

// FileHandle is a positioned read/write/flush/resize handle over a single
// fixed-length file. All offsets are absolute file offsets.
type FileHandle interface {
	Size() (int64, error)
	Resize(size int64) error
	ReadAt(absOffset int64, buf []byte) (int, error)
	WriteAt(absOffset int64, buf []byte) (int, error)
	Flush() error
	Close() error
}

// Filesystem is the minimal set of operations the ring store needs in order
// to create and open its backing file.
type Filesystem interface {
	Exists(path string) (bool, error)
	CreateDirectories(path string) error
	CreateEmptyFile(path string) error
	OpenReadWrite(path string) (FileHandle, error)
}

// Native returns the Filesystem backed by the host's real filesystem.
func Native() Filesystem {
	return nativeFS{}
}
