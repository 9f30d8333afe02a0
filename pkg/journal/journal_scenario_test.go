package journal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/journal/pkg/journal"
)

func openTestJournal(t *testing.T, name string, opts journal.OpenOptions) *journal.Journal {
	t.Helper()

	opts.Path = t.TempDir()
	opts.Name = name

	j, err := journal.Open(opts)
	require.NoError(t, err)

	t.Cleanup(func() { _ = j.Close() })

	return j
}

// Test_Append_295_Entries_Then_Stats_Search_Rollback_Purge walks through
// several end-to-end scenarios on one journal: 295 entries with explicit
// seqnum/timestamp, full-range stats, a lower-bound search, rollback into
// the middle of the range, and purge of the surviving head.
func Test_Append_295_Entries_Then_Stats_Search_Rollback_Purge(t *testing.T) {
	t.Parallel()

	j := openTestJournal(t, "scenario", journal.OpenOptions{})

	entries := make([]journal.Entry, 0, 295)

	for seqnum := uint64(20); seqnum <= 314; seqnum++ {
		entries = append(entries, journal.Entry{
			Seqnum:    seqnum,
			Timestamp: seqnum - (seqnum % 10),
			Data:      []byte("payload"),
		})
	}

	n, err := j.Append(entries...)
	require.NoError(t, err)
	assert.Equal(t, 295, n)

	// Scenario: Stats(0, 10_000_000) over the full range.
	stats, err := j.Stats(0, 10_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), stats.MinSeqnum)
	assert.Equal(t, uint64(314), stats.MaxSeqnum)
	assert.Equal(t, uint64(295), stats.NumEntries)
	assert.Equal(t, int64(7080), stats.IndexSize) // 295 * 24 index records

	// Scenario: Search(25, LOWER) finds the first seqnum whose timestamp
	// is >= 25. Seqnums 20..29 all carry timestamp 20 and 30..39 carry 30,
	// so seqnum 30 (the first with timestamp 30) is the answer.
	seqnum, err := j.Search(25, journal.SearchLower)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), seqnum)

	// Scenario: Rollback(100) removes every entry with seqnum > 100.
	removed, err := j.Rollback(100)
	require.NoError(t, err)
	assert.Equal(t, uint64(214), removed)

	stats, err = j.Stats(0, 10_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), stats.MinSeqnum)
	assert.Equal(t, uint64(100), stats.MaxSeqnum)
	assert.Equal(t, uint64(81), stats.NumEntries)

	// Scenario: Purge(100) removes every entry with seqnum < 100.
	removed, err = j.Purge(100)
	require.NoError(t, err)
	assert.Equal(t, uint64(80), removed)

	stats, err = j.Stats(0, 10_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), stats.MinSeqnum)
	assert.Equal(t, uint64(100), stats.MaxSeqnum)
	assert.Equal(t, uint64(1), stats.NumEntries)
}

// Test_Purge_Then_Reopen verifies a journal purged of its head (seqnums
// below 100) reports the surviving seqnum range after a fresh Open.
func Test_Purge_Then_Reopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	j, err := journal.Open(journal.OpenOptions{Path: dir, Name: "reopen"})
	require.NoError(t, err)

	entries := make([]journal.Entry, 0, 295)

	for seqnum := uint64(20); seqnum <= 314; seqnum++ {
		entries = append(entries, journal.Entry{
			Seqnum:    seqnum,
			Timestamp: seqnum - (seqnum % 10),
			Data:      []byte("x"),
		})
	}

	_, err = j.Append(entries...)
	require.NoError(t, err)

	_, err = j.Purge(100)
	require.NoError(t, err)

	require.NoError(t, j.Close())

	reopened, err := journal.Open(journal.OpenOptions{Path: dir, Name: "reopen"})
	require.NoError(t, err)

	defer func() { _ = reopened.Close() }()

	stats, err := reopened.Stats(0, 10_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), stats.MinSeqnum)
	assert.Equal(t, uint64(314), stats.MaxSeqnum)
}

// Test_Second_Handle_Fails_To_Lock verifies that opening an already-open
// journal from a second handle fails with ErrLocked.
func Test_Second_Handle_Fails_To_Lock(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	first, err := journal.Open(journal.OpenOptions{Path: dir, Name: "locked"})
	require.NoError(t, err)

	defer func() { _ = first.Close() }()

	_, err = journal.Open(journal.OpenOptions{Path: dir, Name: "locked"})
	assert.ErrorIs(t, err, journal.ErrLocked)
}

func Test_Append_Assigns_Seqnum_And_Timestamp_When_Zero(t *testing.T) {
	t.Parallel()

	j := openTestJournal(t, "auto", journal.OpenOptions{})

	n, err := j.Append(journal.Entry{Data: []byte("a")}, journal.Entry{Data: []byte("b")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stats, err := j.Stats(0, 10_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.MinSeqnum)
	assert.Equal(t, uint64(2), stats.MaxSeqnum)
}

func Test_Append_Rejects_Broken_Sequence(t *testing.T) {
	t.Parallel()

	j := openTestJournal(t, "broken", journal.OpenOptions{})

	_, err := j.Append(journal.Entry{Seqnum: 1, Timestamp: 1})
	require.NoError(t, err)

	n, err := j.Append(journal.Entry{Seqnum: 5, Timestamp: 2})
	assert.ErrorIs(t, err, journal.ErrBrokenSeqnum)
	assert.Equal(t, 0, n)
}

func Test_Read_Stops_At_Buffer_Boundary(t *testing.T) {
	t.Parallel()

	j := openTestJournal(t, "readbuf", journal.OpenOptions{})

	_, err := j.Append(
		journal.Entry{Seqnum: 1, Timestamp: 1, Data: []byte("hello")},
		journal.Entry{Seqnum: 2, Timestamp: 2, Data: []byte("world")},
	)
	require.NoError(t, err)

	entries := make([]journal.Entry, 2)
	buf := make([]byte, 48) // the first 32-byte record, but not the second record's header

	num, err := j.Read(1, entries, buf)
	require.NoError(t, err)
	assert.Equal(t, 1, num)
	assert.Equal(t, []byte("hello"), entries[0].Data)
}

// Test_Read_Invalidates_Prior_Entry_At_Buffer_Boundary exercises the case
// where the buffer holds the next record's header but not its full
// payload: the previously fully-parsed entry must have its Data
// invalidated too, since the caller is expected to resize and retry from
// that earlier seqnum rather than trust a half-delivered batch.
func Test_Read_Invalidates_Prior_Entry_At_Buffer_Boundary(t *testing.T) {
	t.Parallel()

	j := openTestJournal(t, "readbuf2", journal.OpenOptions{})

	_, err := j.Append(
		journal.Entry{Seqnum: 1, Timestamp: 1, Data: []byte("hello")},
		journal.Entry{Seqnum: 2, Timestamp: 2, Data: []byte("01234567890123456789")},
	)
	require.NoError(t, err)

	entries := make([]journal.Entry, 2)
	// 32 bytes for the first record plus 24 for the second record's
	// header - enough to decode the second header but not its payload.
	buf := make([]byte, 56)

	num, err := j.Read(1, entries, buf)
	require.NoError(t, err)
	assert.Equal(t, 1, num)

	assert.Equal(t, uint64(1), entries[0].Seqnum)
	assert.Nil(t, entries[0].Data)

	assert.Equal(t, uint64(2), entries[1].Seqnum)
	assert.Nil(t, entries[1].Data)
}

func Test_Rollback_Past_Start_Empties_Journal(t *testing.T) {
	t.Parallel()

	j := openTestJournal(t, "rollbackall", journal.OpenOptions{})

	_, err := j.Append(
		journal.Entry{Seqnum: 10, Timestamp: 10},
		journal.Entry{Seqnum: 11, Timestamp: 11},
	)
	require.NoError(t, err)

	removed, err := j.Rollback(5)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), removed)

	_, err = j.Stats(0, 100)
	require.NoError(t, err)

	_, err = j.Search(0, journal.SearchLower)
	assert.ErrorIs(t, err, journal.ErrNotFound)
}
