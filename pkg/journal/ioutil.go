package journal

import (
	"fmt"

	"github.com/calvinalkan/journal/pkg/journal/internal/jfs"
)

// zeroFillChunkSize bounds the buffer used by zeroFill so that zeroing a
// large tail region doesn't allocate proportionally to its size.
const zeroFillChunkSize = 64 * 1024

var zeroChunk = make([]byte, zeroFillChunkSize)

// fileSize returns the current size of f.
func fileSize(f jfs.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat: %w", err)
	}

	return info.Size(), nil
}

// zeroFill overwrites the byte range [from, to) of f with zeros. It is used
// to blank a record or index tail that a crash left partially written, and
// to shrink the live region during rollback without shrinking the file.
func zeroFill(f jfs.File, from, to int64) error {
	for off := from; off < to; {
		n := to - off
		if n > zeroFillChunkSize {
			n = zeroFillChunkSize
		}

		written, err := f.WriteAt(zeroChunk[:n], off)
		if err != nil {
			return fmt.Errorf("zero fill at %d: %w", off, err)
		}

		off += int64(written)
	}

	return nil
}
