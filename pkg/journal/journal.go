package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/calvinalkan/journal/pkg/journal/internal/flock"
	"github.com/calvinalkan/journal/pkg/journal/internal/jfs"
)

const maxNameLen = 32

// Journal is a handle to an open append-only journal.
//
// A Journal is safe for one writer and any number of concurrent readers.
// It is not safe for concurrent writers: Append, Rollback, and Purge must
// not be called concurrently with each other.
type Journal struct {
	fsys jfs.FS

	path  string
	name  string
	fsync bool

	// stateMu guards state and datEnd. Append and the readers hold it only
	// while reading or publishing them, never across I/O; Rollback, Purge
	// and Close hold it for their whole duration.
	stateMu sync.RWMutex
	state   State
	datEnd  int64

	// fileMu serializes destructive/whole-file operations (Rollback,
	// Purge) against readers (Read, Search, Stats). Append does not take
	// fileMu: a single writer is assumed, and Append never needs a
	// consistent view across more than one record at a time.
	fileMu sync.RWMutex

	dat *dataFile
	idx *indexFile

	datLock *flock.Lock
	idxLock *flock.Lock

	closed bool
}

func validateName(name string) error {
	if name == "" || len(name) > maxNameLen {
		return fmt.Errorf("%w: name must be 1-%d bytes", ErrInvalidName, maxNameLen)
	}

	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return fmt.Errorf("%w: name contains invalid character %q", ErrInvalidName, r)
		}
	}

	return nil
}

func validatePath(path string) (string, error) {
	if path == "" {
		return os.Getwd()
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("%w: not a directory", ErrInvalidPath)
	}

	return path, nil
}

// Open opens or creates the journal identified by opts.Path/opts.Name.
//
// If the data file does not exist, both files are created fresh (any
// stale index is removed first). If the index is missing, invalid, or
// inconsistent with the data file, it is rebuilt by rescanning the data
// file; a second failure after rebuild is returned to the caller.
func Open(opts OpenOptions) (*Journal, error) {
	return openWith(jfs.NewReal(), opts)
}

func openWith(fsys jfs.FS, opts OpenOptions) (*Journal, error) {
	path, err := validatePath(opts.Path)
	if err != nil {
		return nil, err
	}

	if err := validateName(opts.Name); err != nil {
		return nil, err
	}

	datPath := filepath.Join(path, opts.Name+".dat")
	idxPath := filepath.Join(path, opts.Name+".idx")

	datExists := true

	if _, err := fsys.Stat(datPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrDataOpen, err)
		}

		datExists = false
	}

	if !datExists {
		if _, err := fsys.Stat(idxPath); err == nil {
			if err := fsys.Remove(idxPath); err != nil {
				return nil, fmt.Errorf("%w: remove stale index: %w", ErrIndexWrite, err)
			}
		}

		if err := createDataFile(fsys, datPath); err != nil {
			return nil, err
		}
	}

	if _, err := fsys.Stat(idxPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrIndexOpen, err)
		}

		if err := createIndexFile(fsys, idxPath); err != nil {
			return nil, err
		}
	}

	dat, err := openDataFile(fsys, datPath)
	if err != nil {
		return nil, err
	}

	first, dataOk, err := dat.scanFirst()
	if err != nil {
		dat.Close()

		return nil, err
	}

	var dataEmpty bool

	var firstSeqnum, firstTimestamp uint64

	if dataOk {
		firstSeqnum, firstTimestamp = first.Seqnum, first.Timestamp
	} else {
		dataEmpty = true
	}

	if opts.Check && dataOk {
		size, serr := dat.size()
		if serr != nil {
			dat.Close()

			return nil, serr
		}

		if _, _, _, serr := dat.scanForward(headerSize+recordSpan(first.DataLen), size, first.Seqnum, first.Timestamp, nil); serr != nil {
			dat.Close()

			return nil, serr
		}
	}

	var (
		state  State
		datEnd int64
	)

	idx, err := openIndexFile(fsys, idxPath)
	if err == nil {
		state, datEnd, err = idx.crossCheck(dat, dataEmpty, firstSeqnum, firstTimestamp, opts.Check)
		if err != nil {
			idx.Close()
		}
	}

	if err != nil {
		if errors.Is(err, ErrInvalidIndexFormat) {
			state, datEnd, err = rebuildIndexFile(fsys, idxPath, dat)
			if err != nil {
				dat.Close()

				return nil, err
			}

			idx, err = openIndexFile(fsys, idxPath)
			if err != nil {
				dat.Close()

				return nil, err
			}
		} else {
			dat.Close()

			return nil, err
		}
	}

	datLock, err := acquireLock(dat.f)
	if err != nil {
		dat.Close()
		idx.Close()

		return nil, err
	}

	idxLock, err := acquireLock(idx.f)
	if err != nil {
		datLock.Unlock()
		dat.Close()
		idx.Close()

		return nil, err
	}

	j := &Journal{
		fsys:    fsys,
		path:    path,
		name:    opts.Name,
		fsync:   opts.Fsync,
		state:   state,
		datEnd:  datEnd,
		dat:     dat,
		idx:     idx,
		datLock: datLock,
		idxLock: idxLock,
	}

	return j, nil
}

func acquireLock(f jfs.File) (*flock.Lock, error) {
	l, err := flock.TryLock(int(f.Fd()))
	if err != nil {
		if errors.Is(err, flock.ErrWouldBlock) {
			return nil, fmt.Errorf("%w: another handle holds the lock", ErrLocked)
		}

		return nil, fmt.Errorf("%w: %w", ErrLocked, err)
	}

	return l, nil
}

// Close releases the journal's locks and closes its files. Close is
// idempotent.
func (j *Journal) Close() error {
	j.stateMu.Lock()
	defer j.stateMu.Unlock()

	if j.closed {
		return nil
	}

	j.closed = true

	j.datLock.Unlock()
	j.idxLock.Unlock()

	errDat := j.dat.Close()
	errIdx := j.idx.Close()

	if errDat != nil {
		return errDat
	}

	return errIdx
}

// Path returns the directory the journal's files live in.
func (j *Journal) Path() string { return j.path }

// Name returns the journal's name.
func (j *Journal) Name() string { return j.name }

func (j *Journal) checkOpen() error {
	if j.closed {
		return ErrClosed
	}

	return nil
}

func (j *Journal) snapshotState() State {
	j.stateMu.RLock()
	defer j.stateMu.RUnlock()

	return j.state
}
