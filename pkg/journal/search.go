package journal

// Search finds a seqnum boundary by timestamp.
//
// SearchLower returns the least seqnum whose timestamp is >= ts.
// SearchUpper returns the least seqnum whose timestamp is > ts.
// It returns ErrNotFound if no such seqnum exists (an empty journal, or ts
// past the end of the recorded range).
func (j *Journal) Search(ts uint64, mode SearchMode) (uint64, error) {
	if err := j.checkOpen(); err != nil {
		return 0, err
	}

	j.fileMu.RLock()
	defer j.fileMu.RUnlock()

	state := j.snapshotState()

	if state.Empty() {
		return 0, ErrNotFound
	}

	switch mode {
	case SearchLower:
		if ts <= state.Timestamp1 {
			return state.Seqnum1, nil
		}

		if ts > state.Timestamp2 {
			return 0, ErrNotFound
		}
	case SearchUpper:
		if ts < state.Timestamp1 {
			return state.Seqnum1, nil
		}

		if ts >= state.Timestamp2 {
			return 0, ErrNotFound
		}
	}

	lo, hi := state.Seqnum1, state.Seqnum2

	for lo < hi {
		mid := lo + (hi-lo)/2

		rec, err := j.idx.readSlot(indexSlotPos(state.Seqnum1, mid))
		if err != nil {
			return 0, err
		}

		match := false

		switch mode {
		case SearchLower:
			match = rec.Timestamp >= ts
		case SearchUpper:
			match = rec.Timestamp > ts
		}

		if match {
			hi = mid
		} else {
			lo = mid + 1
		}
	}

	return lo, nil
}
