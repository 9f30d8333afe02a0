package journal

import "errors"

// Sentinel errors returned by journal operations.
//
// Callers should classify errors with [errors.Is]:
//
//	if errors.Is(err, journal.ErrNotFound) {
//	    // ...
//	}
var (
	// ErrInvalidArgument indicates a caller-supplied argument was invalid,
	// such as a Read buffer smaller than a record header. Bad paths and
	// names are reported as ErrInvalidPath and ErrInvalidName.
	ErrInvalidArgument = errors.New("journal: invalid argument")

	// ErrInvalidPath indicates OpenOptions.Path is neither empty nor an
	// existing directory.
	ErrInvalidPath = errors.New("journal: invalid path")

	// ErrInvalidName indicates OpenOptions.Name is empty, too long, or
	// contains characters other than [A-Za-z0-9_].
	ErrInvalidName = errors.New("journal: invalid name")

	// ErrDataOpen indicates the data file could not be created or opened.
	ErrDataOpen = errors.New("journal: data file open failed")

	// ErrDataRead indicates an I/O error while reading the data file.
	ErrDataRead = errors.New("journal: data file read failed")

	// ErrDataWrite indicates an I/O error while writing the data file.
	ErrDataWrite = errors.New("journal: data file write failed")

	// ErrIndexOpen indicates the index file could not be created or opened.
	ErrIndexOpen = errors.New("journal: index file open failed")

	// ErrIndexRead indicates an I/O error while reading the index file.
	ErrIndexRead = errors.New("journal: index file read failed")

	// ErrIndexWrite indicates an I/O error while writing the index file.
	ErrIndexWrite = errors.New("journal: index file write failed")

	// ErrInvalidDataFormat indicates the data file header or record
	// stream is structurally invalid (bad magic/format, or a semantic
	// mismatch found during a checked scan).
	ErrInvalidDataFormat = errors.New("journal: invalid data file format")

	// ErrInvalidIndexFormat indicates the index file header or record
	// stream is structurally invalid, or is inconsistent with the data
	// file. This error class triggers a single index rebuild attempt at
	// open time.
	ErrInvalidIndexFormat = errors.New("journal: invalid index file format")

	// ErrChecksumMismatch indicates a stored record's checksum does not
	// match its recomputed value.
	ErrChecksumMismatch = errors.New("journal: checksum mismatch")

	// ErrBrokenSeqnum indicates an appended entry's seqnum is neither 0
	// nor state.seqnum2+1.
	ErrBrokenSeqnum = errors.New("journal: broken sequence")

	// ErrInvalidTimestamp indicates an appended entry's timestamp is
	// non-zero and less than state.timestamp2.
	ErrInvalidTimestamp = errors.New("journal: invalid timestamp")

	// ErrMissingData indicates data_len > 0 but no payload was supplied
	// (or vice versa). Append never returns it: an Entry's Data slice
	// carries its own length, so the two cannot disagree.
	ErrMissingData = errors.New("journal: missing data")

	// ErrNotFound indicates a requested seqnum/timestamp has no match.
	ErrNotFound = errors.New("journal: not found")

	// ErrTempFile indicates a failure creating, writing, or renaming the
	// temporary file used by Purge.
	ErrTempFile = errors.New("journal: temp file error")

	// ErrLocked indicates the advisory file lock could not be acquired
	// because another handle (in this or another process) already holds
	// it.
	ErrLocked = errors.New("journal: locked")

	// ErrClosed indicates the operation was attempted on a closed
	// journal handle.
	ErrClosed = errors.New("journal: closed")
)
