package journal

// OpenOptions configures opening or creating a journal.
type OpenOptions struct {
	// Path is the directory the journal's files live in. Empty means the
	// current working directory.
	Path string

	// Name identifies the journal within Path. Non-empty, at most 32
	// bytes, and restricted to [A-Za-z0-9_]. The engine owns
	// Path/Name.dat and Path/Name.idx. Purge writes its replacement data
	// file through a temporary file in Path whose name is chosen by
	// github.com/natefinch/atomic; no Path/Name.tmp file is used.
	Name string

	// Check enables full-scan verification of both files against each
	// other at open time (spec §4.2/§4.3 "check mode").
	Check bool

	// Fsync enables fdatasync of the data file after Append and after
	// Rollback. Rollback syncs the index file whether or not Fsync is set,
	// and Purge does not consult it. Off by default, matching the teacher
	// packages' opt-in durability knobs.
	Fsync bool
}

// Entry is a single journal record.
//
// On input to [Journal.Append], Seqnum == 0 means "assign the next
// seqnum" and Timestamp == 0 means "assign the current wall-clock
// millisecond timestamp." Entries populated by reads always have non-zero
// Seqnum and Timestamp; slots that [Journal.Read] leaves unused have
// Seqnum == 0.
type Entry struct {
	Seqnum    uint64
	Timestamp uint64
	Data      []byte
}

// State is the in-memory summary of a journal's live range.
//
// All four fields are zero if and only if the journal is empty.
type State struct {
	Seqnum1    uint64
	Timestamp1 uint64
	Seqnum2    uint64
	Timestamp2 uint64
}

// Empty reports whether the state describes an empty journal.
func (s State) Empty() bool {
	return s == State{}
}

// SearchMode selects the boundary [Journal.Search] looks for.
type SearchMode int

const (
	// SearchLower finds the least seqnum whose timestamp is >= ts.
	SearchLower SearchMode = iota

	// SearchUpper finds the least seqnum whose timestamp is > ts.
	SearchUpper
)

// Stats summarizes a seqnum range clamped to the journal's live range.
type Stats struct {
	MinSeqnum    uint64
	MaxSeqnum    uint64
	MinTimestamp uint64
	MaxTimestamp uint64
	NumEntries   uint64
	IndexSize    int64
	DataSize     int64

	// FsyncEnabled reports the OpenOptions.Fsync value the journal was
	// opened with; the mode cannot be changed on an open journal.
	FsyncEnabled bool
}
