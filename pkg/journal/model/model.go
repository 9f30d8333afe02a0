// Package model provides a deliberately simple, in-memory state model of
// the journal engine's publicly observable seqnum/timestamp bookkeeping.
//
// The model is intentionally easy to audit: it favors clarity over
// performance and keeps every record's payload in memory rather than
// mirroring the on-disk format.
package model

import "github.com/calvinalkan/journal/pkg/journal"

// Record is a single committed journal entry.
type Record struct {
	Seqnum    uint64
	Timestamp uint64
	Data      string
}

// Journal is an in-memory stand-in for [journal.Journal].
type Journal struct {
	Records []Record
	Fsync   bool
	Closed  bool
}

// New returns an empty model journal.
func New(fsync bool) *Journal {
	return &Journal{Fsync: fsync}
}

// Clone makes a deep copy so metamorphic tests can fork identical state.
func (m *Journal) Clone() *Journal {
	if m == nil {
		return nil
	}

	records := make([]Record, len(m.Records))
	copy(records, m.Records)

	return &Journal{Records: records, Fsync: m.Fsync, Closed: m.Closed}
}

// State returns the model's current journal.State.
func (m *Journal) State() journal.State {
	if len(m.Records) == 0 {
		return journal.State{}
	}

	first := m.Records[0]
	last := m.Records[len(m.Records)-1]

	return journal.State{
		Seqnum1:    first.Seqnum,
		Timestamp1: first.Timestamp,
		Seqnum2:    last.Seqnum,
		Timestamp2: last.Timestamp,
	}
}

// Append mirrors [journal.Journal.Append]'s per-entry validation and
// auto-assignment rules, returning the number of entries committed.
func (m *Journal) Append(entries []journal.Entry, now uint64) (int, error) {
	if m.Closed {
		return 0, journal.ErrClosed
	}

	state := m.State()

	for i, e := range entries {
		seqnum := e.Seqnum

		if seqnum == 0 {
			seqnum = state.Seqnum2 + 1
		} else if !state.Empty() && seqnum != state.Seqnum2+1 {
			return i, journal.ErrBrokenSeqnum
		}

		timestamp := e.Timestamp

		if timestamp == 0 {
			timestamp = now
			if timestamp < state.Timestamp2 {
				timestamp = state.Timestamp2
			}
		} else if timestamp < state.Timestamp2 {
			return i, journal.ErrInvalidTimestamp
		}

		m.Records = append(m.Records, Record{Seqnum: seqnum, Timestamp: timestamp, Data: string(e.Data)})

		state.Seqnum2 = seqnum
		state.Timestamp2 = timestamp

		if i == 0 && len(m.Records) == 1 {
			state.Seqnum1 = seqnum
			state.Timestamp1 = timestamp
		}
	}

	return len(entries), nil
}

// Read mirrors [journal.Journal.Read]'s selection logic (buffer exhaustion
// aside, since the model holds full payloads in memory).
func (m *Journal) Read(seqnum uint64, n int) ([]Record, error) {
	state := m.State()

	if seqnum == 0 || state.Empty() || seqnum < state.Seqnum1 || seqnum > state.Seqnum2 {
		return nil, journal.ErrNotFound
	}

	start := seqnum - state.Seqnum1
	end := start + uint64(n)

	if end > uint64(len(m.Records)) {
		end = uint64(len(m.Records))
	}

	out := make([]Record, end-start)
	copy(out, m.Records[start:end])

	return out, nil
}

// Search mirrors [journal.Journal.Search].
func (m *Journal) Search(ts uint64, mode journal.SearchMode) (uint64, error) {
	state := m.State()

	if state.Empty() {
		return 0, journal.ErrNotFound
	}

	switch mode {
	case journal.SearchLower:
		if ts <= state.Timestamp1 {
			return state.Seqnum1, nil
		}

		if ts > state.Timestamp2 {
			return 0, journal.ErrNotFound
		}
	case journal.SearchUpper:
		if ts < state.Timestamp1 {
			return state.Seqnum1, nil
		}

		if ts >= state.Timestamp2 {
			return 0, journal.ErrNotFound
		}
	}

	for _, r := range m.Records {
		match := false

		switch mode {
		case journal.SearchLower:
			match = r.Timestamp >= ts
		case journal.SearchUpper:
			match = r.Timestamp > ts
		}

		if match {
			return r.Seqnum, nil
		}
	}

	return 0, journal.ErrNotFound
}

// Stats mirrors [journal.Journal.Stats]'s range clamping and counting.
func (m *Journal) Stats(seqnum1, seqnum2 uint64) journal.Stats {
	state := m.State()

	if state.Empty() {
		return journal.Stats{FsyncEnabled: m.Fsync}
	}

	lo := seqnum1
	if lo < state.Seqnum1 {
		lo = state.Seqnum1
	}

	hi := seqnum2
	if hi > state.Seqnum2 {
		hi = state.Seqnum2
	}

	if lo > hi {
		return journal.Stats{FsyncEnabled: m.Fsync}
	}

	loRec := m.Records[lo-state.Seqnum1]
	hiRec := m.Records[hi-state.Seqnum1]

	return journal.Stats{
		MinSeqnum:    lo,
		MaxSeqnum:    hi,
		MinTimestamp: loRec.Timestamp,
		MaxTimestamp: hiRec.Timestamp,
		NumEntries:   hi - lo + 1,
		FsyncEnabled: m.Fsync,
	}
}

// Rollback mirrors [journal.Journal.Rollback].
func (m *Journal) Rollback(seqnum uint64) uint64 {
	state := m.State()

	if state.Empty() || seqnum >= state.Seqnum2 {
		return 0
	}

	if seqnum < state.Seqnum1 {
		removed := uint64(len(m.Records))
		m.Records = nil

		return removed
	}

	keep := seqnum - state.Seqnum1 + 1
	removed := uint64(len(m.Records)) - keep
	m.Records = m.Records[:keep]

	return removed
}

// Purge mirrors [journal.Journal.Purge].
func (m *Journal) Purge(seqnum uint64) uint64 {
	state := m.State()

	if state.Empty() || seqnum <= state.Seqnum1 {
		return 0
	}

	if seqnum > state.Seqnum2 {
		removed := uint64(len(m.Records))
		m.Records = nil

		return removed
	}

	drop := seqnum - state.Seqnum1
	removed := drop
	m.Records = m.Records[drop:]

	return removed
}

// Close mirrors [journal.Journal.Close]; idempotent.
func (m *Journal) Close() error {
	m.Closed = true

	return nil
}
