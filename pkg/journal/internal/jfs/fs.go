// Package jfs provides the filesystem abstraction the journal engine reads
// and writes through.
//
// The shape follows pkg/fs in the sibling slotcache/mddb packages: a small
// [File] interface satisfied by [*os.File], and an [FS] factory so tests can
// substitute a fake implementation. Unlike that sibling package the journal
// never seeks a shared cursor — all data/index I/O is positional (ReadAt/
// WriteAt), which is what lets readers run concurrently with an appending
// writer without coordinating a file offset.
package jfs

import (
	"io"
	"os"
)

// File is the subset of *os.File the journal engine uses.
//
// Implementations must support positional I/O (ReadAt/WriteAt) without
// disturbing any other handle's view of the file — this is what allows a
// single writer and many readers to share one open file description safely.
type File interface {
	io.ReaderAt
	io.WriterAt
	io.Closer

	// Fd returns the OS file descriptor, used for advisory locking.
	Fd() uintptr

	// Sync commits the file's contents to disk. See [os.File.Sync].
	Sync() error

	// Stat returns file metadata. See [os.File.Stat].
	Stat() (os.FileInfo, error)
}

// FS creates and opens files. Production code uses [Real]; tests may
// substitute a fake to simulate torn writes deterministically.
type FS interface {
	// OpenFile opens a file with the given flags and permissions. See
	// [os.OpenFile].
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// Remove deletes a file. See [os.Remove].
	Remove(path string) error

	// Stat returns file metadata. See [os.Stat].
	Stat(path string) (os.FileInfo, error)
}

// Compile-time interface check.
var _ File = (*os.File)(nil)
