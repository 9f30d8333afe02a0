package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/journal/pkg/journal"
	"github.com/calvinalkan/journal/pkg/journal/model"
)

func Test_Model_Append_Assigns_Seqnum_And_Timestamp(t *testing.T) {
	t.Parallel()

	m := model.New(false)

	n, err := m.Append([]journal.Entry{{Data: []byte("a")}}, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	state := m.State()
	assert.Equal(t, uint64(1), state.Seqnum1)
	assert.Equal(t, uint64(1), state.Seqnum2)
	assert.Equal(t, uint64(1000), state.Timestamp1)
}

func Test_Model_Append_Rejects_Broken_Sequence(t *testing.T) {
	t.Parallel()

	m := model.New(false)

	_, err := m.Append([]journal.Entry{{Seqnum: 1, Timestamp: 1}}, 0)
	require.NoError(t, err)

	_, err = m.Append([]journal.Entry{{Seqnum: 5, Timestamp: 2}}, 0)
	assert.ErrorIs(t, err, journal.ErrBrokenSeqnum)
}

func Test_Model_Append_Rejects_Decreasing_Timestamp(t *testing.T) {
	t.Parallel()

	m := model.New(false)

	_, err := m.Append([]journal.Entry{{Seqnum: 1, Timestamp: 100}}, 0)
	require.NoError(t, err)

	_, err = m.Append([]journal.Entry{{Seqnum: 2, Timestamp: 50}}, 0)
	assert.ErrorIs(t, err, journal.ErrInvalidTimestamp)
}

func Test_Model_Rollback_Removes_Tail(t *testing.T) {
	t.Parallel()

	m := model.New(false)

	entries := make([]journal.Entry, 0, 10)
	for i := uint64(1); i <= 10; i++ {
		entries = append(entries, journal.Entry{Seqnum: i, Timestamp: i})
	}

	_, err := m.Append(entries, 0)
	require.NoError(t, err)

	removed := m.Rollback(6)
	assert.Equal(t, uint64(4), removed)
	assert.Equal(t, uint64(6), m.State().Seqnum2)
}

func Test_Model_Purge_Removes_Head(t *testing.T) {
	t.Parallel()

	m := model.New(false)

	entries := make([]journal.Entry, 0, 10)
	for i := uint64(1); i <= 10; i++ {
		entries = append(entries, journal.Entry{Seqnum: i, Timestamp: i})
	}

	_, err := m.Append(entries, 0)
	require.NoError(t, err)

	removed := m.Purge(5)
	assert.Equal(t, uint64(4), removed)
	assert.Equal(t, uint64(5), m.State().Seqnum1)
}

func Test_Model_Search_Lower_And_Upper(t *testing.T) {
	t.Parallel()

	m := model.New(false)

	entries := []journal.Entry{
		{Seqnum: 1, Timestamp: 10},
		{Seqnum: 2, Timestamp: 10},
		{Seqnum: 3, Timestamp: 20},
	}

	_, err := m.Append(entries, 0)
	require.NoError(t, err)

	seqnum, err := m.Search(10, journal.SearchLower)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seqnum)

	seqnum, err = m.Search(10, journal.SearchUpper)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), seqnum)

	_, err = m.Search(21, journal.SearchLower)
	assert.ErrorIs(t, err, journal.ErrNotFound)
}
